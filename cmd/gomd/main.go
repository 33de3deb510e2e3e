package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/dmolina/gomd"
	"github.com/dmolina/gomd/coords/ctz"
	"github.com/dmolina/gomd/coords/dcd"
	"github.com/dmolina/gomd/units"
)

var (
	configFile string
	outFile    string
	prec       int
)

//baseUnits resolves the base-unit configuration: the --config file when
//given, the environment otherwise.
func baseUnits() (units.Config, error) {
	if configFile != "" {
		return units.Load(configFile)
	}
	return units.FromEnv()
}

//openReader builds a reader for the named trajectory, picking the format
//from the extension: .dcd is a binary Charmm/NAMD file, everything else a
//compressed-text one.
func openReader(name string, cfg units.Config) (*gomd.Reader, error) {
	var src gomd.Source
	if strings.ToLower(filepath.Ext(name)) == ".dcd" {
		d, err := dcd.New(name)
		if err != nil {
			return nil, err
		}
		src = d
	} else {
		c, _, err := ctz.New(name)
		if err != nil {
			return nil, err
		}
		src = c
	}
	return gomd.NewReader(src, cfg, nil)
}

//openWriter builds a writer for the named trajectory, picking the format
//from the extension like openReader. The source's stepping metadata, when
//known, is reproduced in the output.
func openWriter(name string, natoms int, r *gomd.Reader, cfg units.Config) (*gomd.Writer, error) {
	var sink gomd.Sink
	if strings.ToLower(filepath.Ext(name)) == ".dcd" {
		var err error
		var d *dcd.DCDW
		if step, ok := r.Stepping(); ok {
			d, err = dcd.NewWriter(name, natoms, step)
		} else {
			d, err = dcd.NewWriter(name, natoms)
		}
		if err != nil {
			return nil, err
		}
		sink = d
	} else {
		c, err := ctz.NewWriter(name, natoms, map[string]string{"prec": fmt.Sprint(prec)})
		if err != nil {
			return nil, err
		}
		sink = c
	}
	return gomd.NewWriter(sink, cfg, nil)
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info trajectory",
		Short: "Describe a trajectory file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := baseUnits()
			if err != nil {
				return err
			}
			r, err := openReader(args[0], cfg)
			if err != nil {
				return err
			}
			defer r.Close()
			fmt.Println(r)
			fmt.Printf("native length unit: %s, native time unit: %s\n",
				r.Units().Native("length"), r.Units().Native("time"))
			if step, ok := r.Stepping(); ok {
				delta := []float64{step.Delta()}
				if _, err := r.Units().TimeFromNative(delta); err == nil {
					fmt.Printf("first step %d, %d steps between frames, timestep %g %s\n",
						step.StartTimestep(), step.SkipTimestep(), delta[0], cfg.Time)
				}
			}
			return nil
		},
	}
}

func convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert in out",
		Short: "Rewrite a trajectory in another format",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := baseUnits()
			if err != nil {
				return err
			}
			r, err := openReader(args[0], cfg)
			if err != nil {
				return err
			}
			defer r.Close()
			w, err := openWriter(args[1], r.NumAtoms(), r, cfg)
			if err != nil {
				return err
			}
			defer w.Close()
			frames := 0
			for {
				f, err := r.Next()
				if err != nil {
					if _, ok := err.(gomd.LastFrameError); ok {
						break
					}
					return err
				}
				//the frame buffer is reused, so both conversions run on it
				//in place before it goes out.
				if _, err := r.Units().PositionFromNative(f.Raw()); err != nil {
					return err
				}
				if _, err := w.Units().PositionToNative(f.Raw()); err != nil {
					return err
				}
				if err := w.Write(f); err != nil {
					return err
				}
				frames++
			}
			if err := w.Close(); err != nil {
				return err
			}
			fmt.Printf("wrote %d frames to %s\n", frames, args[1])
			return nil
		},
	}
}

//cellVolume gives the volume of a triclinic cell from its dimensions
//(A, B, C, alpha, beta, gamma), angles in degrees.
func cellVolume(d [6]float32) float64 {
	a, b, c := float64(d[0]), float64(d[1]), float64(d[2])
	ca := math.Cos(float64(d[3]) * math.Pi / 180)
	cb := math.Cos(float64(d[4]) * math.Pi / 180)
	cg := math.Cos(float64(d[5]) * math.Pi / 180)
	return a * b * c * math.Sqrt(1-ca*ca-cb*cb-cg*cg+2*ca*cb*cg)
}

func boxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "box trajectory",
		Short: "Plot the unit-cell volume along a trajectory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := baseUnits()
			if err != nil {
				return err
			}
			r, err := openReader(args[0], cfg)
			if err != nil {
				return err
			}
			defer r.Close()
			pts := make(plotter.XYs, 0, 128)
			for {
				f, err := r.Next()
				if err != nil {
					if _, ok := err.(gomd.LastFrameError); ok {
						break
					}
					return err
				}
				pts = append(pts, plotter.XY{X: float64(f.Index), Y: cellVolume(f.Dimensions())})
			}
			p := plot.New()
			p.Title.Text = filepath.Base(args[0])
			p.X.Label.Text = "frame"
			p.Y.Label.Text = fmt.Sprintf("cell volume (%s^3)", cfg.Length)
			line, err := plotter.NewLine(pts)
			if err != nil {
				return err
			}
			p.Add(plotter.NewGrid(), line)
			if err := p.Save(6*vg.Inch, 4*vg.Inch, outFile); err != nil {
				return err
			}
			fmt.Printf("plotted %d frames to %s\n", len(pts), outFile)
			return nil
		},
	}
}

func main() {
	root := &cobra.Command{
		Use:   "gomd",
		Short: "Inspect, convert and plot molecular-dynamics trajectories",
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML file with the base units")
	root.PersistentFlags().IntVar(&prec, "prec", 3, "decimals kept per coordinate in text output")
	box := boxCmd()
	box.Flags().StringVarP(&outFile, "out", "o", "box.png", "output image file")
	root.AddCommand(infoCmd(), convertCmd(), box)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
