package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/automate/orgs-server/repos"
)

type InspectCmd struct {
	Name string `arg:"" help:"Organization name"`
}

func (i *InspectCmd) Run(ctx context.Context, globals *Globals) error {
	s, err := open(ctx, globals)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	org, err := s.manager.Get(ctx, i.Name)
	if err != nil {
		return err
	}

	count, err := s.store.Collections().Count(ctx, org.CollectionName)
	if err != nil {
		return fmt.Errorf("failed to count documents: %w", err)
	}

	fmt.Printf("Organization: %s\n", org.OrganizationName)
	fmt.Printf("Id:           %s\n", org.Id)
	fmt.Printf("Collection:   %s (%d documents)\n", org.CollectionName, count)
	fmt.Printf("Created:      %s\n", org.CreatedAt.Format(time.RFC3339))

	admin, err := s.store.Catalog().FindAdminByOrganization(ctx, org.Id)
	switch {
	case errors.Is(err, repos.ErrNotFound):
		fmt.Println("Admin:        none")
	case err != nil:
		return fmt.Errorf("failed to find admin: %w", err)
	default:
		fmt.Printf("Admin:        %s\n", admin.Email)
	}

	return nil
}
