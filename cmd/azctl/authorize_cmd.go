// Copyright 2025 Veda Platform, Inc.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/veda-platform/az/pkg/audit"
	"github.com/veda-platform/az/pkg/az/access"
	"github.com/veda-platform/az/pkg/az/engine"
	"github.com/veda-platform/az/pkg/az/storage"
)

var authorizeCmd = &cobra.Command{
	Use:   "authorize",
	Short: "Evaluate one authorization decision against the configured storage backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		resource, _ := cmd.Flags().GetString("resource")
		user, _ := cmd.Flags().GetString("user")
		requestedTags, _ := cmd.Flags().GetString("access")
		verbose, _ := cmd.Flags().GetBool("verbose")

		if resource == "" {
			return fmt.Errorf("--resource flag is required")
		}
		if user == "" {
			return fmt.Errorf("--user flag is required")
		}

		requested, err := parseTags(requestedTags)
		if err != nil {
			return err
		}

		ctx := context.Background()

		var store storage.Store
		switch cfg.Storage.Backend {
		case "bolt":
			store, err = storage.OpenLegacyStore(ctx, cfg.Storage.Path)
		default:
			store, err = storage.OpenBboltStore(ctx, cfg.Storage.Path)
		}
		if err != nil {
			return fmt.Errorf("open storage backend: %w", err)
		}
		if closer, ok := store.(storage.Closer); ok {
			defer closer.Close()
		}

		engineCtx := engine.New(store, 0, nil)
		if cfg.Engine.NamespacePerm != "" {
			engineCtx.Config.Namespaces = engine.Namespaces{
				Permission: cfg.Engine.NamespacePerm,
				Membership: cfg.Engine.NamespaceMember,
				Filter:     cfg.Engine.NamespaceFilter,
				Negative:   cfg.Engine.NamespaceNeg,
			}
			engineCtx.Config.EnableNegative = cfg.Engine.EnableNegative
		}

		var trace *engine.Trace
		if verbose {
			trace = engine.NewTrace(true, true, true)
		}

		granted, authErr := engineCtx.Authorize(ctx, resource, user, requested, trace)

		if cfg.Audit.Enabled {
			auditLogger, aerr := audit.NewLogger(audit.Config{
				Enabled:    cfg.Audit.Enabled,
				OutputPath: cfg.Audit.OutputPath,
			})
			if aerr == nil {
				_ = auditLogger.LogDecision(resource, user, requested, granted, authErr)
				auditLogger.Close()
			}
		}

		if authErr != nil {
			return fmt.Errorf("authorize: %w", authErr)
		}

		fmt.Printf("requested: %s\n", access.TagString(requested))
		fmt.Printf("granted:   %s\n", access.TagString(granted))

		if verbose && trace != nil {
			if s := trace.GroupLog(); s != "" {
				fmt.Println(s)
			}
			if s := trace.ACLLog(); s != "" {
				fmt.Println(s)
			}
			if s := trace.InfoLog(); s != "" {
				fmt.Println(s)
			}
		}

		if granted != requested {
			return fmt.Errorf("access denied or partially granted")
		}

		return nil
	},
}

// parseTags converts a string of tag characters (e.g. "MRUP") into an
// access byte. An empty string requests no access.
func parseTags(s string) (uint8, error) {
	var acc uint8
	for _, c := range s {
		bit, ok := access.FromTag(byte(c))
		if !ok {
			return 0, fmt.Errorf("unknown access tag %q", string(c))
		}
		acc |= uint8(bit)
	}
	return acc, nil
}

func init() {
	rootCmd.AddCommand(authorizeCmd)

	authorizeCmd.Flags().StringP("resource", "r", "", "Resource URI (required)")
	authorizeCmd.Flags().StringP("user", "u", "", "User/grantee URI (required)")
	authorizeCmd.Flags().StringP("access", "a", "", "Requested access tags (M R U P m r u p)")
	authorizeCmd.Flags().BoolP("verbose", "v", false, "Print the traversal trace")
}
