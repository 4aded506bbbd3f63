package commands

import (
	"context"
	"fmt"
)

type MigrateCmd struct{}

func (m *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	s, err := open(ctx, globals)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	// OpenStore already migrated when AUTO_MIGRATE is on, running it again is harmless
	if err := s.store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	fmt.Printf("Migrated %s store\n", s.config.StoreDriver)
	return nil
}
