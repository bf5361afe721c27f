package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhay-kr-0705/GEN-X/internal/app"
	"github.com/abhay-kr-0705/GEN-X/internal/model"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage member accounts",
	}
	cmd.AddCommand(newMakeAdminCmd())
	return cmd
}

func newMakeAdminCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "make-admin EMAIL",
		Short: "Grant admin rights to a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			svc := app.Services(env.cfg, env.stores, nil, nil, env.log)
			u, err := svc.Admin.MakeAdmin(cmd.Context(), args[0], model.Role(role))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Email, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(model.RoleAdmin), "admin or superadmin")
	return cmd
}
