package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"service-request-form/internal/attachments"
	"service-request-form/internal/form"
	"service-request-form/internal/headless"
	"service-request-form/internal/logging"
	"service-request-form/internal/markup"
)

// SubmitEnvPrefix namespaces formsubmit environment overrides, e.g. FORMSUBMIT_URL.
const SubmitEnvPrefix = "FORMSUBMIT"

// SubmitDependencies carries what formsubmit needs from the outside world.
type SubmitDependencies struct {
	HTTPClient *http.Client
	Output     io.Writer
	ErrOutput  io.Writer
	// Viper resolves flag values from FORMSUBMIT_* variables; nil uses a fresh instance.
	Viper *viper.Viper
}

type submitInput struct {
	url          string
	action       string
	method       string
	service      string
	fields       []string
	files        []string
	timeout      time.Duration
	maxFileBytes int64
	plain        bool
}

// NewSubmitCommand returns the formsubmit root command. It fills the same form
// controller the browser uses with flag values and submits it.
func NewSubmitCommand(deps SubmitDependencies) *cobra.Command {
	v := deps.Viper
	if v == nil {
		v = viper.New()
	}
	v.SetEnvPrefix(SubmitEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var in submitInput
	command := &cobra.Command{
		Use:           "formsubmit",
		Short:         "Submit a service request with attachments from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.url = v.GetString("url")
			in.action = v.GetString("action")
			in.method = v.GetString("method")
			in.service = v.GetString("service")
			in.timeout = v.GetDuration("timeout")
			in.plain = v.GetBool("plain")
			return runSubmit(cmd.Context(), deps, in)
		},
	}

	flags := command.Flags()
	flags.String("url", "", "Page hosting the form; action, method and services are read from it")
	flags.String("action", "", "Endpoint to post to, overriding the page's form action")
	flags.String("method", "", "HTTP method, overriding the page's form method (default POST)")
	flags.String("service", "", "Service to request")
	flags.Duration("timeout", 2*time.Minute, "Overall time limit")
	flags.Bool("plain", false, "Disable coloured output")
	flags.StringArrayVar(&in.fields, "field", nil, "Form field as name=value (repeatable)")
	flags.StringArrayVar(&in.files, "file", nil, "File to attach (repeatable)")
	flags.Int64Var(&in.maxFileBytes, "max-file-bytes", attachments.MaxFileBytes, "Largest file accepted")
	for _, name := range []string{"url", "action", "method", "service", "timeout", "plain"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}
	return command
}

func runSubmit(ctx context.Context, deps SubmitDependencies, in submitInput) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if in.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, in.timeout)
		defer cancel()
	}
	client := deps.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	output := deps.Output
	if output == nil {
		output = io.Discard
	}
	errOutput := deps.ErrOutput
	if errOutput == nil {
		errOutput = io.Discard
	}

	fields, err := parseFields(in.fields)
	if err != nil {
		return err
	}

	action, method := strings.TrimSpace(in.action), strings.TrimSpace(in.method)
	if strings.TrimSpace(in.url) != "" {
		layout, err := markup.Fetch(ctx, client, in.url)
		if err != nil {
			return fmt.Errorf("inspect form page: %w", err)
		}
		if action == "" {
			action = layout.Action
		}
		if method == "" {
			method = layout.Method
		}
		if choices := layout.ServiceValues(); in.service != "" && len(choices) > 0 && !slices.Contains(choices, in.service) {
			return fmt.Errorf("unknown service %q, choose one of: %s", in.service, strings.Join(choices, ", "))
		}
	}
	if action == "" {
		return errors.New("either --url or --action is required")
	}

	page := headless.NewPage(action, method, headless.NewRegion(output, in.plain))
	for _, f := range fields {
		page.Form.Set(f.Name, f.Value)
	}
	if in.service != "" {
		page.Services.Select(in.service)
	}

	controller, err := form.NewController(page.Slots(), form.Options{
		Transport:    form.HTTPTransport{Client: client},
		Logger:       logging.NewWithWriter(errOutput),
		MaxFileBytes: in.maxFileBytes,
	})
	if err != nil {
		return err
	}

	blobs := make([]attachments.Blob, 0, len(in.files))
	for _, path := range in.files {
		blob, err := headless.OpenFile(path)
		if err != nil {
			return fmt.Errorf("attach %s: %w", path, err)
		}
		blobs = append(blobs, blob)
	}
	added := controller.AddFiles(blobs...)
	for _, a := range added {
		fmt.Fprintf(output, "  %s  %s\n", a.Name(), attachments.FormatSize(a.Size()))
	}

	return controller.Submit(ctx)
}

func parseFields(raw []string) ([]form.Field, error) {
	fields := make([]form.Field, 0, len(raw))
	for _, entry := range raw {
		name, value, ok := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --field %q, expected name=value", entry)
		}
		if name == form.ServiceField {
			return nil, errors.New("use --service to choose the service")
		}
		fields = append(fields, form.Field{Name: name, Value: value})
	}
	return fields, nil
}
