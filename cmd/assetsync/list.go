package main

import (
	"github.com/acksell/assetsync/dynamodb/assetrepo"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var (
		account    int32
		pageSize   int
		descending bool
		prefix     string
		name       string
		eventual   bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the stored assets of an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []assetrepo.ListOption
			if pageSize > 0 {
				opts = append(opts, assetrepo.ListPageSize(pageSize))
			}
			if descending {
				opts = append(opts, assetrepo.ListDescending())
			}
			if prefix != "" {
				opts = append(opts, assetrepo.ListIDPrefix(prefix))
			}
			if cmd.Flags().Changed("name") {
				opts = append(opts, assetrepo.ListNamed(name))
			}

			repo := a.repo
			if eventual {
				repo = repo.EventuallyConsistent()
			}
			assets, err := repo.List(cmd.Context(), account, opts...)
			if err != nil {
				return err
			}
			return a.print(assets)
		},
	}
	cmd.Flags().Int32Var(&account, "account", 0, "account id")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "rows read per request (default 100)")
	cmd.Flags().BoolVar(&descending, "desc", false, "order by descending asset id")
	cmd.Flags().StringVar(&prefix, "prefix", "", "only assets whose id starts with this prefix")
	cmd.Flags().StringVar(&name, "name", "", "only assets with exactly this name")
	cmd.Flags().BoolVar(&eventual, "eventual", false, "use eventually consistent reads")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
