package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"nebula-chat/internal/bootstrap"
	"nebula-chat/internal/config"
	"nebula-chat/internal/model"
)

type dumpDocument struct {
	Found         bool            `json:"found" yaml:"found"`
	MemoryEnabled bool            `json:"memory_enabled" yaml:"memory_enabled"`
	Sessions      []model.Session `json:"sessions" yaml:"sessions"`
}

func newDumpCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print persisted sessions and the memory preference",
		Long: `Print what the configured store holds: the saved session collection
and the memory preference. Nothing is written back.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDump(cmd.Context())
			if err != nil {
				return err
			}
			return writeDump(cmd.OutOrStdout(), format, doc)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format (json, yaml)")
	return cmd
}

func loadDump(ctx context.Context) (dumpDocument, error) {
	cfg, err := config.Load()
	if err != nil {
		return dumpDocument{}, fmt.Errorf("load config failed: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))

	app, err := bootstrap.NewReadOnly(ctx, cfg, logger)
	if err != nil {
		return dumpDocument{}, fmt.Errorf("open store failed: %w", err)
	}
	defer func() { _ = app.Close() }()

	sessions, found := app.Store.Load(ctx)
	return dumpDocument{
		Found:         found,
		MemoryEnabled: app.Store.LoadPreference(ctx),
		Sessions:      sessions,
	}, nil
}

func writeDump(w io.Writer, format string, doc dumpDocument) error {
	if doc.Sessions == nil {
		doc.Sessions = []model.Session{}
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml failed: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q (use json or yaml)", format)
	}
}
