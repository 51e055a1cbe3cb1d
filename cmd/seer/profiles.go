package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/seer/internal/api"
)

func (c *cli) profilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"profile"},
		Short:   "Manage birth profiles",
	}
	cmd.AddCommand(
		c.profilesListCmd(),
		c.profilesShowCmd(),
		c.profilesCreateCmd(),
		c.profilesUpdateCmd(),
		c.profilesDeleteCmd(),
	)
	return cmd
}

func (c *cli) profilesListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := c.api(ctx)
			if err != nil {
				return err
			}
			profiles, err := api.Collect(ctx, limit, client.ListProfiles)
			if err != nil {
				return fmt.Errorf("list profiles: %w", err)
			}
			rows := make([][]string, len(profiles))
			for i, p := range profiles {
				rows[i] = []string{p.ID.String(), p.Name, p.BirthDate + " " + p.BirthTime, p.BirthLocation, p.Gender}
			}
			renderTable(c.out, []string{"ID", "Name", "Born", "Place", "Gender"}, rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum profiles to list (0 = all)")
	return cmd
}

func (c *cli) profilesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <profile-id>",
		Short: "Show one profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.api(cmd.Context())
			if err != nil {
				return err
			}
			p, err := client.Profile(cmd.Context(), api.ID(args[0]))
			if err != nil {
				return fmt.Errorf("get profile %s: %w", args[0], err)
			}
			c.printProfile(p)
			return nil
		},
	}
}

func (c *cli) printProfile(p *api.Profile) {
	renderFields(c.out, [][2]string{
		{"ID", p.ID.String()},
		{"Name", p.Name},
		{"Birth date", p.BirthDate},
		{"Birth time", p.BirthTime},
		{"Birthplace", p.BirthLocation},
		{"Gender", p.Gender},
		{"Timezone", p.Timezone},
		{"Created", formatTime(p.CreatedAt)},
	})
}

// profileFlags binds the profile fields to flags on cmd.
func profileFlags(cmd *cobra.Command, in *api.ProfileInput) {
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "display name")
	f.StringVar(&in.BirthDate, "birth-date", "", "birth date, YYYY-MM-DD")
	f.StringVar(&in.BirthTime, "birth-time", "", "birth time, HH:MM (24h)")
	f.StringVar(&in.BirthLocation, "birth-location", "", "birthplace")
	f.StringVar(&in.Gender, "gender", "", "M or F")
	f.StringVar(&in.Timezone, "timezone", "", "IANA timezone, e.g. Asia/Shanghai")
}

func (c *cli) profilesCreateCmd() *cobra.Command {
	var in api.ProfileInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := c.api(cmd.Context())
			if err != nil {
				return err
			}
			p, err := client.CreateProfile(cmd.Context(), in)
			if err != nil {
				printFieldErrors(c, err)
				return fmt.Errorf("create profile: %w", err)
			}
			c.printf("%s Created profile %s\n", okStyle.Render("✓"), p.ID)
			c.printProfile(p)
			return nil
		},
	}
	profileFlags(cmd, &in)
	for _, name := range []string{"name", "birth-date", "birth-time", "birth-location", "gender"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (c *cli) profilesUpdateCmd() *cobra.Command {
	var in api.ProfileInput
	cmd := &cobra.Command{
		Use:   "update <profile-id>",
		Short: "Change fields of a profile",
		Long:  "Only the flags given are sent; other fields keep their values.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := api.ProfilePatch{}
			changed := false
			set := func(flag string, dst **string, value string) {
				if cmd.Flags().Changed(flag) {
					v := value
					*dst = &v
					changed = true
				}
			}
			set("name", &patch.Name, in.Name)
			set("birth-date", &patch.BirthDate, in.BirthDate)
			set("birth-time", &patch.BirthTime, in.BirthTime)
			set("birth-location", &patch.BirthLocation, in.BirthLocation)
			set("gender", &patch.Gender, in.Gender)
			set("timezone", &patch.Timezone, in.Timezone)
			if !changed {
				return fmt.Errorf("nothing to update: pass at least one field flag")
			}

			client, err := c.api(cmd.Context())
			if err != nil {
				return err
			}
			p, err := client.PatchProfile(cmd.Context(), api.ID(args[0]), patch)
			if err != nil {
				printFieldErrors(c, err)
				return fmt.Errorf("update profile %s: %w", args[0], err)
			}
			c.printProfile(p)
			return nil
		},
	}
	profileFlags(cmd, &in)
	return cmd
}

func (c *cli) profilesDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <profile-id>",
		Short: "Delete a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				answer, err := c.ask(fmt.Sprintf("Delete profile %s? [y/N]", args[0]), false)
				if err != nil {
					return err
				}
				if answer != "y" && answer != "Y" && answer != "yes" {
					c.printf("Kept profile %s\n", args[0])
					return nil
				}
			}
			client, err := c.api(cmd.Context())
			if err != nil {
				return err
			}
			if err := client.DeleteProfile(cmd.Context(), api.ID(args[0])); err != nil {
				return fmt.Errorf("delete profile %s: %w", args[0], err)
			}
			c.printf("Deleted profile %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
