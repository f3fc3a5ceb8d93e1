package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaborage/netkit/httpclient"
)

// UploadOptions holds options for the upload command
type UploadOptions struct {
	Method      string
	Field       string
	ContentType string
	Headers     []string
}

// NewUploadCommand creates the upload command
func NewUploadCommand(global *GlobalOptions) *cobra.Command {
	opts := &UploadOptions{}

	cmd := &cobra.Command{
		Use:   "upload <file> <path>",
		Short: "Upload a local file and print the response body",
		Example: `  # Raw body, Content-Type detected from the file
  netkit upload ./report.pdf /reports -c netkit.yaml

  # multipart/form-data part named "document"
  netkit upload ./report.pdf /reports --field document`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, global, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&opts.Method, "method", "X", "POST", "HTTP method")
	cmd.Flags().StringVar(&opts.Field, "field", "", "Send as multipart/form-data with this part name")
	cmd.Flags().StringVar(&opts.ContentType, "content-type", "", "Content-Type (default detected from the file)")
	cmd.Flags().StringArrayVarP(&opts.Headers, "header", "H", nil, "Header name=value (repeatable)")

	return cmd
}

func runUpload(cmd *cobra.Command, global *GlobalOptions, opts *UploadOptions, file, path string) error {
	method := httpclient.Method(strings.ToUpper(opts.Method))
	if !method.Valid() {
		return fmt.Errorf("unsupported method %q", opts.Method)
	}
	headers, err := parseHeaders(opts.Headers)
	if err != nil {
		return err
	}

	s, err := newSession(cmd, global, true)
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	ep := httpclient.NewSpec(method, path,
		httpclient.WithHeaders(headers),
		httpclient.WithContentType(opts.ContentType),
	)

	var body []byte
	if opts.Field != "" {
		body, err = s.client.UploadMultipart(cmd.Context(), file, opts.Field, ep)
	} else {
		body, err = s.client.Upload(cmd.Context(), file, ep)
	}
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(body)
	return err
}
