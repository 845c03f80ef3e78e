package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/kgclient"
	"github.com/kailas-cloud/kgclient/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the kgupload version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func newVersionCheckCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version-check",
		Short: "Verify the knowledge graph service version is supported",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := o.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			v, err := s.client.VersionCheck(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "kg %s supported\n", v)
			return nil
		},
	}
}

func newVersionedCommand(o *rootOptions, kind kgclient.Kind, use, short string) *cobra.Command {
	var (
		opts    kgclient.SchemaOptions
		pattern string
	)
	cmd := &cobra.Command{
		Use:   use + " DIR",
		Short: short,
		Long: short + ".\nFiles are addressed by their path: DIR/.../organization/domain/name/version.json\n" +
			"or DIR/.../organization/domain/name/version/file.json.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			if pattern == "" {
				pattern = s.cfg.Upload.Pattern
			}
			outcomes, err := s.client.UploadDirectory(cmd.Context(), kind, args[0], kgclient.DirectoryOptions{
				Pattern: pattern,
				Schema:  opts,
			})
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), outcomes)
		},
	}
	cmd.Flags().BoolVar(&opts.ForceDomainCreation, "force-domain", false, "Create missing organizations and domains")
	cmd.Flags().BoolVar(&opts.UpdateIfExists, "update", false, "Revise existing unpublished resources")
	cmd.Flags().BoolVar(&opts.Publish, "publish", false, "Publish after uploading")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Glob selecting files below DIR (default from config)")
	return cmd
}

func newInstancesCommand(o *rootOptions) *cobra.Command {
	var (
		pattern string
		lenient bool
	)
	cmd := &cobra.Command{
		Use:   "instances DIR",
		Short: "Upload instance templates below DIR",
		Long: "Upload instance templates below DIR.\n" +
			"An instance carrying http://schema.org/identifier replaces the existing instance with\n" +
			"the same identifier, and is skipped when its content did not change.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			if pattern == "" {
				pattern = s.cfg.Upload.Pattern
			}
			failIfMissing := *s.cfg.Upload.FailIfLinkedInstanceMissing && !lenient
			outcomes, err := s.client.UploadDirectory(cmd.Context(), kgclient.KindInstance, args[0], kgclient.DirectoryOptions{
				Pattern:       pattern,
				FailIfMissing: failIfMissing,
			})
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), outcomes)
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", "", "Glob selecting files below DIR (default from config)")
	cmd.Flags().BoolVar(&lenient, "allow-missing-links", false, "Upload instances whose references cannot be resolved")
	return cmd
}

func newClearInstancesCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-instances SUBPATH",
		Short: "Delete every instance below SUBPATH (org/domain/schema/version)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			n, err := s.client.ClearAllInstances(cmd.Context(), args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%d instances deleted\n", n)
			return err
		},
	}
}

func newClearChecksumsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-checksums DIR",
		Short: "Remove checksum marker files below DIR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := kgclient.ClearAllChecksums(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d checksum files removed\n", n)
			return nil
		},
	}
}

// report prints one line per file and a summary, failing when any file failed.
func report(w io.Writer, outcomes []kgclient.FileOutcome) error {
	counts := map[kgclient.UploadAction]int{}
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			fmt.Fprintf(w, "%-8s %s: %v\n", "failed", o.Path, o.Err)
			continue
		}
		counts[o.Action]++
		if o.Revision > 0 {
			fmt.Fprintf(w, "%-8s %s (rev %d)\n", o.Action, o.Path, o.Revision)
		} else {
			fmt.Fprintf(w, "%-8s %s\n", o.Action, o.Path)
		}
	}
	fmt.Fprintf(w, "%d created, %d updated, %d skipped, %d failed\n",
		counts[kgclient.ActionCreated], counts[kgclient.ActionUpdated], counts[kgclient.ActionSkipped], failed)
	return kgclient.FailedUploads(outcomes)
}
