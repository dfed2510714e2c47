package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layouttester/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the rendered artifact cache",
		Long: `PNG and PDF conversions are cached by SVG content hash, so re-running an
unchanged layout skips rsvg-convert. The cache lives in $XDG_CACHE_HOME/layouttester.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show the number and size of cached renderings",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return runCacheInfo() },
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all cached renderings",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return runCacheClear() },
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return errors.Wrap(errors.ErrCodeEnvironment, err, "locate cache directory")
			}
			fmt.Fprintln(stdout, dir)
			return nil
		},
	})
	return cmd
}

// cacheEntries lists the files below the cache directory. A missing
// directory is an empty cache.
func cacheEntries() (string, []string, int64, error) {
	dir, err := cacheDir()
	if err != nil {
		return "", nil, 0, errors.Wrap(errors.ErrCodeEnvironment, err, "locate cache directory")
	}
	var files []string
	var size int64
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && os.IsNotExist(err) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return dir, nil, 0, errors.Wrap(errors.ErrCodeEnvironment, err, "read cache %s", dir)
	}
	return dir, files, size, nil
}

func runCacheInfo() error {
	dir, files, size, err := cacheEntries()
	if err != nil {
		return err
	}
	printKeyValue("Directory", dir)
	printKeyValue("Entries", fmt.Sprintf("%d", len(files)))
	printKeyValue("Size", formatSize(size))
	return nil
}

func runCacheClear() error {
	dir, files, size, err := cacheEntries()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		printInfo("Cache is empty")
		return nil
	}

	removed := 0
	for _, f := range files {
		if err := os.Remove(f); err == nil {
			removed++
		}
	}
	// Shard directories are recreated on demand.
	shards, _ := os.ReadDir(dir)
	for _, s := range shards {
		if s.IsDir() {
			_ = os.Remove(filepath.Join(dir, s.Name()))
		}
	}

	printSuccess("Cleared %d cached rendering(s), %s", removed, formatSize(size))
	printDetail("Directory: %s", dir)
	return nil
}
