package main

import (
	"time"

	"github.com/koustreak/simpledb/internal/audit"
	"github.com/koustreak/simpledb/internal/errs"
	"github.com/koustreak/simpledb/internal/filestore/minio"
	"github.com/spf13/cobra"
)

func newAuditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect and archive the statement audit log",
	}
	cmd.AddCommand(newAuditShowCmd(a))
	cmd.AddCommand(newAuditArchiveCmd(a))
	return cmd
}

func newAuditShowCmd(a *app) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the records of one day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := audit.ParseDay(date)
			if err != nil {
				return err
			}
			if !a.audit.Enabled() {
				a.log.Warn("audit log is disabled; showing records written earlier")
			}
			records, err := a.audit.Read(day)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to show as YYYY-MM-DD (default today)")
	return cmd
}

func newAuditArchiveCmd(a *app) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Upload a finished day to object storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day := time.Now().AddDate(0, 0, -1)
			if date != "" {
				var err error
				if day, err = audit.ParseDay(date); err != nil {
					return err
				}
			}

			storeCfg, enabled := a.file.ArchiveConfig()
			if !enabled {
				return errs.New(errs.ErrKindInvalidInput, `archiving is off (set archive.enable = "true")`)
			}

			ctx := a.log.WithContext(cmd.Context())
			store, err := minio.New(ctx, storeCfg)
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := audit.NewArchiver(a.audit, store, storeCfg.Bucket, storeCfg.Prefix).Archive(ctx, day)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"bucket":   storeCfg.Bucket,
				"key":      res.Object.Key,
				"size":     res.Object.Size,
				"uploaded": res.Uploaded,
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to archive as YYYY-MM-DD (default yesterday)")
	return cmd
}
