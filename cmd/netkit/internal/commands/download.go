package commands

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const defaultParallel = 4

// DownloadOptions holds options for the download command
type DownloadOptions struct {
	Parallel int
}

type downloadTarget struct {
	URL         string
	Destination string
}

// NewDownloadCommand creates the download command
func NewDownloadCommand(global *GlobalOptions) *cobra.Command {
	opts := &DownloadOptions{}

	cmd := &cobra.Command{
		Use:   "download <url>=<destination>...",
		Short: "Download files to local paths",
		Long: `Downloads each URL to its destination. Destinations that already exist are
left untouched and reported as errors. The first failure cancels the rest.`,
		Example: `  netkit download https://cdn.example.com/a.pdf=./a.pdf https://cdn.example.com/b.pdf=./b.pdf`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, global, opts, args)
		},
	}

	cmd.Flags().IntVarP(&opts.Parallel, "parallel", "p", defaultParallel, "Maximum concurrent downloads")

	return cmd
}

func runDownload(cmd *cobra.Command, global *GlobalOptions, opts *DownloadOptions, args []string) error {
	targets, err := parseDownloadTargets(args)
	if err != nil {
		return err
	}

	s, err := newSession(cmd, global, false)
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(opts.Parallel, 1))

	var mu sync.Mutex
	out := cmd.OutOrStdout()
	for _, target := range targets {
		g.Go(func() error {
			if err := s.client.Download(ctx, target.URL, target.Destination); err != nil {
				return fmt.Errorf("downloading %s: %w", target.URL, err)
			}
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(out, "%s -> %s\n", target.URL, target.Destination)
			return nil
		})
	}

	return g.Wait()
}

// parseDownloadTargets splits each url=destination argument at its last '='
// so query strings in the URL survive.
func parseDownloadTargets(args []string) ([]downloadTarget, error) {
	targets := make([]downloadTarget, 0, len(args))
	seen := make(map[string]bool, len(args))

	for _, arg := range args {
		i := strings.LastIndex(arg, "=")
		if i <= 0 || i == len(arg)-1 {
			return nil, fmt.Errorf("expected <url>=<destination>, got %q", arg)
		}
		t := downloadTarget{URL: arg[:i], Destination: arg[i+1:]}
		if seen[t.Destination] {
			return nil, fmt.Errorf("destination %s given more than once", t.Destination)
		}
		seen[t.Destination] = true
		targets = append(targets, t)
	}
	return targets, nil
}
