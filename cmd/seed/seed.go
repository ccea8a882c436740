// Package seed implements the registry seeding command.
package seed

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/signbridge-go/internal/conf"
	"github.com/tphakala/signbridge-go/internal/datastore"
)

// Command creates the seed command, which populates the sign language
// registry with the default variants. Existing codes are left untouched.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Populate the sign language registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}
}

func run(settings *conf.Settings) error {
	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database configured")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() { _ = store.Close() }()

	created, err := store.SeedSignLanguages(datastore.DefaultSignLanguages())
	if err != nil {
		return fmt.Errorf("seeding registry: %w", err)
	}

	fmt.Printf("Seeded %d sign language variants\n", created)
	return nil
}
