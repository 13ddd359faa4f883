// cmd/preview/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"order-printer/internal/config"
	"order-printer/internal/driver/preview"
	"order-printer/internal/engine"
	"order-printer/internal/model"
	"order-printer/internal/receipt"
	"order-printer/internal/service"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run renders each order file given in args to stdout and returns the exit code
func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("order-preview", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	width := fs.IntP("width", "w", 0, "line width in characters (default: receipt.print_width)")
	configDir := fs.StringP("config", "c", "", "directory holding config.yaml")
	verbose := fs.BoolP("verbose", "v", false, "log job execution to stderr")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: order-preview [flags] ORDER_FILE...")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "order-preview: %v\n", err)
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	layout := receipt.DefaultLayout()
	if *configDir != "" {
		cfg, err := config.Load(*configDir)
		if err != nil {
			fmt.Fprintf(stderr, "order-preview: %v\n", err)
			return 1
		}
		layout = receipt.LayoutFromConfig(cfg.Receipt)
	}

	if *width != 0 {
		if *width < service.MinPreviewWidth || *width > service.MaxPreviewWidth {
			fmt.Fprintf(stderr, "order-preview: width %d is outside %d..%d\n", *width, service.MinPreviewWidth, service.MaxPreviewWidth)
			return 2
		}
		layout = layout.WithWidth(*width)
	}

	logger := zap.NewNop()
	if *verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}
	defer logger.Sync()

	r := &renderer{
		compiler: receipt.NewCompiler(layout),
		engine:   engine.New(logger),
		width:    layout.PrintWidth,
	}

	for i, path := range fs.Args() {
		order, err := loadOrder(path)
		if err != nil {
			fmt.Fprintf(stderr, "order-preview: %v\n", err)
			return 1
		}

		text, err := r.render(context.Background(), order)
		if err != nil {
			fmt.Fprintf(stderr, "order-preview: %s: %v\n", path, err)
			var verr *service.ValidationError
			if errors.As(err, &verr) {
				for _, field := range sortedKeys(verr.Fields) {
					fmt.Fprintf(stderr, "  %s: %s\n", field, verr.Fields[field])
				}
			}
			return 1
		}

		if i > 0 {
			fmt.Fprintln(stdout)
		}
		fmt.Fprint(stdout, text)
	}
	return 0
}

type renderer struct {
	compiler *receipt.Compiler
	engine   *engine.Engine
	width    int
}

func (r *renderer) render(ctx context.Context, order *model.OrderDocument) (string, error) {
	if fields := order.Validate(); fields != nil {
		return "", &service.ValidationError{Fields: fields}
	}

	drv := preview.New(r.width)
	if _, err := r.engine.Execute(ctx, drv, r.compiler.Compile(order)); err != nil {
		return "", err
	}
	return drv.Output(), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// loadOrder decodes an order file. .json files are read as JSON, anything
// else as YAML.
func loadOrder(path string) (*model.OrderDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read order: %w", err)
	}

	var order model.OrderDocument
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &order)
	} else {
		err = yaml.Unmarshal(raw, &order)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &order, nil
}
