package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/freegle/iznik-api/api"
)

// RequestOptions holds options for the request command
type RequestOptions struct {
	Params   []string
	Data     string
	Override string
	Deadline time.Duration
}

// NewRequestCommand creates the request command
func NewRequestCommand(global *GlobalOptions) *cobra.Command {
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:   "request METHOD PATH",
		Short: "Send one request through the API layer and print the outcome",
		Long: `Sends a single request to the configured backend through the full request
layer: dispatch, timeout retry, outcome classification and error reporting.

Successful and suppressed outcomes are printed as JSON. Fatal outcomes print the
error and exit non-zero.`,
		Example: `  # Read a message
  iznik-probe request GET /message --param id=12345

  # Write through the method override header
  iznik-probe request POST /message --override PATCH --data '{"id":12345,"subject":"OFFER: sofa"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd.Context(), global, opts, strings.ToUpper(args[0]), args[1], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringArrayVar(&opts.Params, "param", nil, "Query parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&opts.Data, "data", "", "JSON request body")
	cmd.Flags().StringVar(&opts.Override, "override", "", "Verb to send in X-HTTP-Method-Override (PUT|PATCH|DELETE)")
	cmd.Flags().DurationVar(&opts.Deadline, "deadline", 0, "Give up after this long and report a timeout; also releases aborted calls (0 = until interrupted)")

	return cmd
}

func runRequest(ctx context.Context, global *GlobalOptions, opts *RequestOptions, method, path string, out, errOut io.Writer) error {
	cfg, err := buildRequestConfig(opts)
	if err != nil {
		return err
	}

	deps, err := setup(global, errOut)
	if err != nil {
		return err
	}
	defer func() { _ = deps.close() }()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signalContext(ctx)
	defer stop()
	if opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Deadline)
		defer cancel()
	}

	res, err := deps.client.Request(ctx, method, path, cfg)
	if errors.Is(err, api.ErrSuspended) {
		return fmt.Errorf("%s %s was aborted and released: %w", method, path, err)
	}
	if err != nil {
		return err
	}

	return writeJSON(out, map[string]any{
		"outcome": res.Outcome.String(),
		"rule":    res.Rule,
		"data":    res.Data,
	})
}

func buildRequestConfig(opts *RequestOptions) (api.RequestConfig, error) {
	var cfg api.RequestConfig

	if len(opts.Params) > 0 {
		cfg.Params = make(map[string]string, len(opts.Params))
		for _, p := range opts.Params {
			key, value, ok := strings.Cut(p, "=")
			if !ok || key == "" {
				return cfg, fmt.Errorf("invalid --param %q: want key=value", p)
			}
			cfg.Params[key] = value
		}
	}

	if opts.Data != "" {
		var data any
		if err := json.Unmarshal([]byte(opts.Data), &data); err != nil {
			return cfg, fmt.Errorf("invalid --data: %w", err)
		}
		cfg.Data = data
	}

	if opts.Override != "" {
		cfg.Headers = map[string]string{api.HeaderMethodOverride: strings.ToUpper(opts.Override)}
	}
	return cfg, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
