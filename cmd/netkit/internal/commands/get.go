package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gaborage/netkit/httpclient"
)

// GetOptions holds options for the get command
type GetOptions struct {
	Method  string
	Query   []string
	Headers []string
	Data    string
	Accept  string
	Timeout time.Duration
}

// NewGetCommand creates the get command
func NewGetCommand(global *GlobalOptions) *cobra.Command {
	opts := &GetOptions{}

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Send a request and print the response body",
		Example: `  # GET /v1/users/42 on the configured service
  netkit get /users/42 -c netkit.yaml

  # POST with a body, a header and query items
  netkit get /search -X POST -d '{"q":"go"}' -H 'Content-Type=application/json' -q page=2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, global, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Method, "method", "X", "GET", "HTTP method")
	cmd.Flags().StringArrayVarP(&opts.Query, "query", "q", nil, "Query item name=value (repeatable, order kept)")
	cmd.Flags().StringArrayVarP(&opts.Headers, "header", "H", nil, "Header name=value (repeatable)")
	cmd.Flags().StringVarP(&opts.Data, "data", "d", "", "Request body")
	cmd.Flags().StringVar(&opts.Accept, "accept", "", "Accept header")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Request timeout (default from config)")

	return cmd
}

func runGet(cmd *cobra.Command, global *GlobalOptions, opts *GetOptions, path string) error {
	ep, err := opts.endpoint(path)
	if err != nil {
		return err
	}

	s, err := newSession(cmd, global, true)
	if err != nil {
		return err
	}
	defer s.close(cmd.Context())

	body, err := s.client.Raw(cmd.Context(), ep)
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(body)
	return err
}

func (o *GetOptions) endpoint(path string) (httpclient.Spec, error) {
	method := httpclient.Method(strings.ToUpper(o.Method))
	if !method.Valid() {
		return httpclient.Spec{}, fmt.Errorf("unsupported method %q", o.Method)
	}

	query, err := parseQuery(o.Query)
	if err != nil {
		return httpclient.Spec{}, err
	}
	headers, err := parseHeaders(o.Headers)
	if err != nil {
		return httpclient.Spec{}, err
	}

	specOpts := []httpclient.SpecOption{
		httpclient.WithHeaders(headers),
		httpclient.WithRequestTimeout(o.Timeout),
		httpclient.WithAccept(o.Accept),
	}
	for _, item := range query {
		specOpts = append(specOpts, httpclient.WithQuery(item.Name, item.Value))
	}
	if o.Data != "" {
		specOpts = append(specOpts, httpclient.WithBody([]byte(o.Data)))
	}

	return httpclient.NewSpec(method, path, specOpts...), nil
}

// splitPair splits name=value; the name must not be empty
func splitPair(raw string) (string, string, error) {
	name, value, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return "", "", fmt.Errorf("expected name=value, got %q", raw)
	}
	return strings.TrimSpace(name), value, nil
}

func parseQuery(raw []string) ([]httpclient.QueryItem, error) {
	items := make([]httpclient.QueryItem, 0, len(raw))
	for _, r := range raw {
		name, value, err := splitPair(r)
		if err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		items = append(items, httpclient.QueryItem{Name: name, Value: value})
	}
	return items, nil
}

func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, r := range raw {
		name, value, err := splitPair(r)
		if err != nil {
			return nil, fmt.Errorf("header: %w", err)
		}
		headers[name] = value
	}
	return headers, nil
}
