package cli

import (
	"fmt"
	"os"

	"github.com/bstardust/exif-analyzer/internal/exif"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newThumbnailCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "thumbnail <image> <out.jpg>",
		Short: "Extract the embedded EXIF thumbnail of an image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runThumbnail(cmd, afero.NewOsFs(), args[0], args[1])
		},
	}
}

func runThumbnail(cmd *cobra.Command, fs afero.Fs, image, out string) error {
	f, err := fs.Open(image)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	thumb, ok := exif.Thumbnail(f)
	if !ok {
		return fmt.Errorf("no embedded thumbnail in %s", image)
	}

	if err := afero.WriteFile(fs, out, thumb, os.FileMode(0o644)); err != nil {
		return fmt.Errorf("failed to write thumbnail: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Thumbnail written: %s (%s)\n", out, humanize.Bytes(uint64(len(thumb))))
	return nil
}
