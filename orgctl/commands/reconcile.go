package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/automate/orgs-server/lifecycle"
)

type ReconcileCmd struct {
	DropOrphans bool `help:"Drop tenant collections no organization refers to" default:"false"`
}

func (r *ReconcileCmd) Run(ctx context.Context, globals *Globals) error {
	s, err := open(ctx, globals)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	report, err := s.manager.Reconcile(ctx, r.DropOrphans)
	if err != nil {
		return fmt.Errorf("failed to reconcile: %w", err)
	}

	printReport(report)

	if !report.Clean() && !r.DropOrphans {
		return fmt.Errorf("found inconsistencies")
	}
	return nil
}

func printReport(r *lifecycle.Report) {
	fmt.Printf("Organizations: %d\n", r.Organizations)
	fmt.Printf("Collections:   %d\n", r.Collections)
	fmt.Println()

	printList("Orphan collections", r.OrphanCollections)
	printList("Dropped collections", r.DroppedCollections)
	printList("Organizations without collection", r.DanglingOrganizations)
	printList("Organizations without admin", r.OrganizationsWithoutAdmin)
	printList("Admins without organization", r.OrphanAdmins)

	if r.Clean() {
		fmt.Println("No inconsistencies found")
	}
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("%s (%d):\n  %s\n", title, len(items), strings.Join(items, "\n  "))
}
