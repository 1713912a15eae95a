package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var errNotFound = errors.New("asset not found")

func newGetCmd(a *app) *cobra.Command {
	var (
		account  int32
		assetID  string
		eventual bool
	)
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show one stored asset and its ETag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := uuid.Parse(assetID)
			if err != nil {
				return fmt.Errorf("--asset: %w", err)
			}
			repo := a.repo
			if eventual {
				repo = repo.EventuallyConsistent()
			}
			stored, etag, err := repo.Get(cmd.Context(), account, id)
			if err != nil {
				return err
			}
			if stored == nil {
				return fmt.Errorf("%d/%s: %w", account, id, errNotFound)
			}
			return a.print(storedView{Asset: *stored, ETag: etag})
		},
	}
	cmd.Flags().Int32Var(&account, "account", 0, "account id")
	cmd.Flags().StringVar(&assetID, "asset", "", "asset id")
	cmd.Flags().BoolVar(&eventual, "eventual", false, "use an eventually consistent read")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("asset")
	return cmd
}
