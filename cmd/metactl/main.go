// metactl is a small admin CLI over the metadata service. It wires the
// same configuration as the server (environment variables, .env files)
// and talks to the repository and storage directly.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tendant/simple-metadata/pkg/formmeta"
	"github.com/tendant/simple-metadata/pkg/formmeta/config"
)

var rootCmd = &cobra.Command{
	Use:          "metactl",
	Short:        "Administer form metadata records",
	SilenceUsage: true,
}

func buildService() (formmeta.Service, error) {
	_ = godotenv.Load()
	cfg, err := config.Load(config.WithEnv(""))
	if err != nil {
		return nil, err
	}
	return cfg.BuildService()
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

var listCmd = &cobra.Command{
	Use:   "list <form-id>",
	Short: "List all metadata records for a form, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid form id: %w", err)
		}
		svc, err := buildService()
		if err != nil {
			return err
		}
		metadata, err := svc.MetadataForForm(context.Background(), formID)
		if err != nil {
			return err
		}
		return printJSON(metadata)
	},
}

var addURICmd = &cobra.Command{
	Use:   "add-uri <form-id> <uri>",
	Short: "Attach a remote media URI to a form",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		formID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid form id: %w", err)
		}
		username, _ := cmd.Flags().GetString("username")
		svc, err := buildService()
		if err != nil {
			return err
		}
		md, err := svc.MediaAddURI(context.Background(), formmeta.Form{ID: formID, Username: username}, args[1])
		if err != nil {
			return err
		}
		if md == nil {
			return fmt.Errorf("not a valid URL: %s", args[1])
		}
		return printJSON(md)
	},
}

var hashCmd = &cobra.Command{
	Use:   "hash <metadata-id>",
	Short: "Compute (and cache) the content hash of a record's attachment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int64
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return fmt.Errorf("invalid metadata id: %w", err)
		}
		svc, err := buildService()
		if err != nil {
			return err
		}
		ctx := context.Background()
		md, err := svc.GetMetaData(ctx, id)
		if err != nil {
			return err
		}
		hash, err := svc.FileHash(ctx, md)
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}

func init() {
	addURICmd.Flags().String("username", "", "Form owner username (attachment key prefix)")
	rootCmd.AddCommand(listCmd, addURICmd, hashCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
