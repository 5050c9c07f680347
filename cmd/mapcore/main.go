// Command mapcore evaluates map scene scripts and queries the resulting scene.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chazu/mapcore/pkg/config"
	"github.com/chazu/mapcore/pkg/geom"
	"github.com/chazu/mapcore/pkg/scene"
	"github.com/pelletier/go-toml/v2"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli holds the state shared by the subcommands.
type cli struct {
	configPath string
	cfg        config.Config
	log        *log.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:          "mapcore",
		Short:        "Evaluate map scene scripts and query the scene",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.log = cfg.Logger()
			c.log.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", config.DefaultPath, "path to the TOML config file")

	root.AddCommand(c.evalCmd(), c.meshCmd(), c.pickCmd(), c.configCmd())
	return root
}

func (c *cli) app() *App { return NewApp(c.cfg, c.log) }

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func reportErrors(w io.Writer, errs []EvalErrorData) error {
	for _, e := range errs {
		if e.Line > 0 {
			fmt.Fprintf(w, "line %d: %s\n", e.Line, e.Message)
		} else {
			fmt.Fprintln(w, e.Message)
		}
	}
	return fmt.Errorf("evaluation failed with %d error(s)", len(errs))
}

func (c *cli) evalCmd() *cobra.Command {
	var validate bool
	cmd := &cobra.Command{
		Use:   "eval <file>",
		Short: "Evaluate a script and print the scene tree with bounds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			s, errs := c.app().Load(src)
			if errs != nil {
				return reportErrors(cmd.ErrOrStderr(), errs)
			}
			out := cmd.OutOrStdout()
			for _, n := range Summarize(s) {
				fmt.Fprintf(out, "%s%s %q #%d %v..%v\n",
					strings.Repeat("  ", n.Depth), n.Kind, n.Name, n.Handle, n.Bounds.Min, n.Bounds.Max)
			}
			if validate {
				for _, issue := range Validate(s) {
					fmt.Fprintln(out, issue.Error())
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&validate, "validate", false, "also print validation issues")
	return cmd
}

func (c *cli) meshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mesh <file>",
		Short: "Evaluate a script and print its meshes as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			result := c.app().Evaluate(src)
			enc := json.NewEncoder(cmd.OutOrStdout())
			if err := enc.Encode(result); err != nil {
				return err
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("evaluation failed with %d error(s)", len(result.Errors))
			}
			return nil
		},
	}
}

func (c *cli) pickCmd() *cobra.Command {
	var origin, dir string
	cmd := &cobra.Command{
		Use:   "pick <file>",
		Short: "Cast a ray into the scene and print the hits nearest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := parseVec(origin)
			if err != nil {
				return fmt.Errorf("--origin: %w", err)
			}
			d, err := parseVec(dir)
			if err != nil {
				return fmt.Errorf("--dir: %w", err)
			}
			if d == (geom.Vec{}) {
				return fmt.Errorf("--dir: direction must not be zero")
			}
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			s, errs := c.app().Load(src)
			if errs != nil {
				return reportErrors(cmd.ErrOrStderr(), errs)
			}
			out := cmd.OutOrStdout()
			hits := Pick(s, geom.Ray{Origin: o, Direction: d})
			if len(hits) == 0 {
				fmt.Fprintln(out, "no hits")
				return nil
			}
			for _, h := range hits {
				fmt.Fprintf(out, "%.4f %s %q #%d at %v", h.Distance, h.Type, h.Name, h.Handle, h.Point)
				if h.Type == scene.BrushHit {
					fmt.Fprintf(out, " face %d", h.Face)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&origin, "origin", "0,0,0", "ray origin as x,y,z")
	cmd.Flags().StringVar(&dir, "dir", "1,0,0", "ray direction as x,y,z")
	return cmd
}

func (c *cli) configCmd() *cobra.Command {
	var write string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if write != "" {
				return config.Save(write, c.cfg)
			}
			data, err := toml.Marshal(c.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&write, "write", "", "write the configuration to this path instead")
	return cmd
}
