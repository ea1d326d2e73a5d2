package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdouchement/raf"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var version = "dev"

type rootOptions struct {
	camera   string
	cameras  string
	strict   bool
	maxDepth int
}

func (o *rootOptions) parse() raf.Options {
	return raf.Options{ValidateMagic: o.strict, MaxDepth: o.maxDepth}
}

// resolveCamera picks the camera named on the command line, from the
// built-in table or the YAML file given with --cameras.
func (o *rootOptions) resolveCamera() (raf.Camera, error) {
	table := raf.Cameras
	if o.cameras != "" {
		f, err := os.Open(o.cameras)
		if err != nil {
			return raf.Camera{}, errors.Wrap(err, "could not open camera table")
		}
		defer f.Close()

		if table, err = raf.LoadCameras(f); err != nil {
			return raf.Camera{}, err
		}
	}
	return raf.LookupCamera(table, o.camera)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "raf",
		Short:         "Utility for working with Fujifilm RAF image files.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.camera, "camera", "c", raf.DefaultCamera, "Camera model ("+strings.Join(raf.CameraNames(raf.Cameras), ", ")+")")
	flags.StringVar(&opts.cameras, "cameras", "", "YAML file with additional camera models")
	flags.BoolVar(&opts.strict, "strict", false, "Reject files without the RAF signature")
	flags.IntVar(&opts.maxDepth, "max-depth", 32, "Maximum IFD tree depth")

	root.AddCommand(
		newInfoCmd(opts),
		newDevelopCmd(opts),
		newInjectCmd(opts),
		newExtractCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintf(cmd.OutOrStdout(), "raf version: %s\n", version)
				return nil
			},
			DisableFlagsInUseLine: true,
		},
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "raf: %s\n", strings.TrimPrefix(err.Error(), "raf: "))
		os.Exit(1)
	}
}

//------------------------//
// info                   //
//------------------------//

func newInfoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Extract and display metadata.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := raf.Open(args[0], opts.parse())
			if err != nil {
				return err
			}
			defer f.Close()

			return writeInfo(cmd.OutOrStdout(), NewLogger(cmd.OutOrStdout()), f)
		},
	}
}

func writeInfo(w io.Writer, logger *Logger, f *raf.File) error {
	id, err := f.Identity()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Camera:\t\tModel = %s; Id = %s; Version = %s\n", id.Model, id.CameraID, id.Version)
	if err := raf.CheckMagic(f.Cursor()); err != nil {
		logger.Warn("%v", err)
	}
	fmt.Fprintln(w, "~~~")

	fmt.Fprint(w, f.Header)
	fmt.Fprintln(w, "~~~")

	sh, err := f.SubHeader()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "IFD Header:\tOffset = 0x%X\n", sh.FirstIFDOffset)
	fmt.Fprintln(w, "~~~")

	err = f.Walk(func(path raf.Path, e raf.Entry) error {
		fmt.Fprintf(w, "IFD Field:\t%s\t%s\n", path, e)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "~~~")

	records, err := f.Records()
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Fprintf(w, "CFA Record:\t%s\n", r)
	}
	return nil
}

//------------------------//
// develop                //
//------------------------//

func newDevelopCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "develop <file>",
		Short: "Process the CFA data in the RAF file and generate a bitmap image.",
		Long: "Process the CFA data in the RAF file and generate a grayscale view of the sensor mosaic.\n" +
			"The output format follows the extension: .png, .bmp, .tif or .hdr (linear).",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cam, err := opts.resolveCamera()
			if err != nil {
				return err
			}
			if output == "" {
				output = replaceExt(args[0], ".png")
			}

			logger := NewLogger(cmd.OutOrStdout())
			f, err := raf.Open(args[0], opts.parse())
			if err != nil {
				return err
			}
			defer f.Close()

			logger.Step("read", cam.Model)
			p, err := f.Plane(cam)
			if err != nil {
				logger.Fail()
				return err
			}
			logger.Done(fmt.Sprintf("%dx%d samples", p.Width, p.Height))

			logger.Step("develop", output)
			if err = savePreview(output, p, cam); err != nil {
				logger.Fail()
				return err
			}
			logger.Done("written")
			logger.Total()
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output image (default <file>.png)")
	return cmd
}

//------------------------//
// inject                 //
//------------------------//

func newInjectCmd(opts *rootOptions) *cobra.Command {
	var imagePath, output string

	cmd := &cobra.Command{
		Use:   "inject <file>",
		Short: "Inject image data from a bitmap image into the RAF file.",
		Long: "Inject image data from a bitmap image into the RAF file.\n" +
			"Each photosite takes the channel the colour filter assigns to it. The file is\n" +
			"modified in place unless --output is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cam, err := opts.resolveCamera()
			if err != nil {
				return err
			}
			logger := NewLogger(cmd.OutOrStdout())

			logger.Step("load", imagePath)
			src, err := loadImage(imagePath)
			if err != nil {
				logger.Fail()
				return err
			}
			logger.Done(src.Bounds().Size().String())

			f, err := raf.Open(args[0], opts.parse())
			if err != nil {
				return err
			}
			p, err := f.Plane(cam)
			h := f.Header
			// The mapping must be released before the file is written back.
			f.Close()
			if err != nil {
				return err
			}

			logger.Step("inject", cam.Model)
			if err = p.Inject(src, cam.Pattern, cam.Levels()); err != nil {
				logger.Fail()
				return err
			}
			logger.Done("encoded")

			target := args[0]
			if output != "" {
				if err = copyFile(output, args[0]); err != nil {
					return err
				}
				target = output
			}

			logger.Step("write", target)
			if err = writePlane(target, h, cam, p); err != nil {
				logger.Fail()
				return err
			}
			logger.Done("written")
			logger.Total()
			return nil
		},
	}
	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "Image to inject (png, bmp, tiff or jpeg)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a copy instead of modifying the file")
	cmd.MarkFlagRequired("image")
	return cmd
}

func writePlane(name string, h raf.Header, cam raf.Camera, p *raf.Plane) error {
	f, err := os.OpenFile(name, os.O_WRONLY, 0)
	if err != nil {
		return errors.Wrap(err, "could not open file for writing")
	}
	if err = raf.WritePlane(f, h, cam, p); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "could not flush file")
}

func copyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "could not open source")
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(err, "could not create copy")
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrap(err, "could not copy file")
	}
	return errors.Wrap(out.Close(), "could not flush copy")
}

//------------------------//
// extract                //
//------------------------//

func newExtractCmd(opts *rootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract bracketed image data from an HDR RAF file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := NewLogger(cmd.OutOrStdout())

			f, err := raf.Open(args[0], opts.parse())
			if err != nil {
				return err
			}
			defer f.Close()

			logger.Step("extract", args[0])
			paths, err := raf.ExtractBracket(f.Cursor(), args[0], dir)
			if err != nil {
				logger.Fail()
				return err
			}
			logger.Done(fmt.Sprintf("%d exposures", len(paths)))
			for _, path := range paths {
				logger.Info("%s", path)
			}
			logger.Total()
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Output directory (default: next to the file)")
	return cmd
}

func replaceExt(name, ext string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}
