package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var geoRefresh bool

var geoCmd = &cobra.Command{
	Use:   "geo",
	Short: "Show the current geo-eligibility decision",
	RunE: func(cmd *cobra.Command, args []string) error {
		d := getApp().GeoStatus(cmd.Context(), geoRefresh)

		country := d.UserCountry
		if country == "" {
			country = "(unresolved)"
		}
		fmt.Printf("country: %s\n", country)
		fmt.Printf("blocked: %v\n", d.IsBlocked)
		if len(d.BlockedRegions) > 0 {
			fmt.Printf("blocked regions: %v\n", d.BlockedRegions)
		}
		if d.Err != "" {
			fmt.Printf("error: %s\n", d.Err)
		}
		return nil
	},
}

func init() {
	geoCmd.Flags().BoolVar(&geoRefresh, "refresh", false, "Bypass the geolocation cache")
}
