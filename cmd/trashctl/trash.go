package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go-storefront-admin/internal/model"
)

var (
	listStatus   string
	listTable    string
	listJSON     bool
	restoreIDs   []string
	restoreRefs  []string
	sweepOlderBy string
)

var trashCmd = &cobra.Command{
	Use:   "trash",
	Short: "Work with the trash store",
}

var trashListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trash entries with their restore annotations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := model.TrashFilter{Table: strings.TrimSpace(listTable)}
		if listStatus != "" {
			status, err := model.ParseVisibility(strings.ToUpper(strings.TrimSpace(listStatus)))
			if err != nil {
				return err
			}
			filter.Status = status
		}

		e, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		items, err := e.Trash.List(cmd.Context(), filter)
		if err != nil {
			return err
		}

		if listJSON {
			return printJSON(cmd.OutOrStdout(), items)
		}
		return printItems(cmd.OutOrStdout(), items)
	},
}

var trashRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore entries together with their dependency closure",
	Example: `  trashctl trash restore --id 3f0c...
  trashctl trash restore --record Category:CAT-1 --record Product:42`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := model.RestoreRequest{IDs: restoreIDs}
		for _, raw := range restoreRefs {
			table, id, ok := strings.Cut(raw, ":")
			if !ok {
				return fmt.Errorf("invalid record %q (expected Table:id)", raw)
			}
			req.RecordIDs = append(req.RecordIDs, model.RecordRef{Table: table, ID: id})
		}

		e, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		result, err := e.Trash.Restore(cmd.Context(), req, actor())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

var trashPurgeCmd = &cobra.Command{
	Use:   "purge <id>",
	Short: "Permanently delete an entry and its trash-tree descendants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		deleted, err := e.Trash.Purge(cmd.Context(), model.TrashIDRequest{ID: args[0]}, actor())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "purged %d entr(ies)\n", deleted)
		return nil
	},
}

var trashSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Physically remove retired entries older than a duration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		result, err := e.Trash.Sweep(cmd.Context(), model.SweepRequest{OlderThan: sweepOlderBy}, actor())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "swept %d entr(ies) deleted before %s\n", result.Purged, result.Cutoff.Format("2006-01-02 15:04:05"))
		return nil
	},
}

func init() {
	trashListCmd.Flags().StringVar(&listStatus, "status", "", "VISIBLE or HIDDEN")
	trashListCmd.Flags().StringVar(&listTable, "table", "", "only entries of this entity type")
	trashListCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON instead of a table")

	trashRestoreCmd.Flags().StringSliceVar(&restoreIDs, "id", nil, "trash entry id (repeatable)")
	trashRestoreCmd.Flags().StringArrayVar(&restoreRefs, "record", nil, "Table:id of a trashed record (repeatable)")

	trashSweepCmd.Flags().StringVar(&sweepOlderBy, "older-than", "720h", "minimum age of retired entries")

	trashCmd.AddCommand(trashListCmd)
	trashCmd.AddCommand(trashRestoreCmd)
	trashCmd.AddCommand(trashPurgeCmd)
	trashCmd.AddCommand(trashSweepCmd)
}

func printJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func printItems(w io.Writer, items []model.TrashItem) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRECORD\tNAME\tSTATUS\tDELETED\tBLOCKED BY")
	for _, item := range items {
		blockers := make([]string, len(item.BlockedBy))
		for i, b := range item.BlockedBy {
			blockers[i] = b.Model + ":" + b.ID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			item.ID, item.Key(), item.DisplayName, item.Status,
			item.DeletedAt.Format("2006-01-02 15:04"), strings.Join(blockers, ","))
	}
	return tw.Flush()
}
