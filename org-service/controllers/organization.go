package controllers

import (
	"github.com/automate/orgs-server/credentials"
	"github.com/automate/orgs-server/lifecycle"
	"github.com/automate/orgs-server/org-service/config"
	"github.com/automate/orgs-server/utils-go"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
)

type OrganizationController struct {
	fx.In

	Manager     *lifecycle.Manager
	Credentials *credentials.Service
}

func RegisterOrganizationController(r *utils.Router, config *config.Config, c OrganizationController) {
	updateAuth := utils.Protected(utils.JwtMiddlewareConfig{
		Credentials: c.Credentials,
		Optional:    config.AllowAnonymousUpdate,
	})
	deleteAuth := utils.Protected(utils.JwtMiddlewareConfig{
		Credentials: c.Credentials,
	})

	r.Post("/org/create", c.createOrganization)
	r.Get("/org/get", c.getOrganization)
	r.Put("/org/update", updateAuth, c.updateOrganization)
	r.Delete("/org/delete", deleteAuth, c.deleteOrganization)
}

type createRequest struct {
	OrganizationName string `json:"organization_name" validate:"required,orgname"`
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required,min=6,max=128"`
}

type organizationResponse struct {
	OrganizationName string `json:"organization_name"`
	CollectionName   string `json:"collection_name"`
	AdminEmail       string `json:"admin_email,omitempty"`
	OrgId            string `json:"org_id"`
}

func (r *OrganizationController) createOrganization(c *fiber.Ctx) error {
	req := new(createRequest)
	if err := utils.StandardBodyParse(c, req); err != nil {
		return err
	}

	res, err := r.Manager.Create(c.Context(), lifecycle.CreateRequest{
		OrganizationName: req.OrganizationName,
		Email:            req.Email,
		Password:         req.Password,
	})
	if err != nil {
		return lifecycleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(organizationResponse{
		OrganizationName: res.Organization.OrganizationName,
		CollectionName:   res.Organization.CollectionName,
		AdminEmail:       res.Admin.Email,
		OrgId:            res.Organization.Id,
	})
}

type getRequest struct {
	OrganizationName string `query:"organization_name" validate:"required"`
}

func (r *OrganizationController) getOrganization(c *fiber.Ctx) error {
	req := new(getRequest)
	if err := utils.StandardQueryParse(c, req); err != nil {
		return err
	}

	org, err := r.Manager.Get(c.Context(), req.OrganizationName)
	if err != nil {
		return lifecycleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(organizationResponse{
		OrganizationName: org.OrganizationName,
		CollectionName:   org.CollectionName,
		OrgId:            org.Id,
	})
}

type updateRequest struct {
	OrganizationName    string `json:"organization_name" validate:"required"`
	NewOrganizationName string `json:"new_organization_name" validate:"omitempty,orgname"`
	Email               string `json:"email" validate:"omitempty,email"`
	Password            string `json:"password" validate:"omitempty,min=6,max=128"`
}

func (r *OrganizationController) updateOrganization(c *fiber.Ctx) error {
	req := new(updateRequest)
	if err := utils.StandardBodyParse(c, req); err != nil {
		return err
	}

	err := r.Manager.Update(c.Context(), lifecycle.UpdateRequest{
		OrganizationName:    req.OrganizationName,
		NewOrganizationName: req.NewOrganizationName,
		Email:               req.Email,
		Password:            req.Password,
		Principal:           utils.PrincipalFrom(c),
	})
	if err != nil {
		return lifecycleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"detail": "Organization updated",
	})
}

type deleteRequest struct {
	OrganizationName string `json:"organization_name" query:"organization_name" validate:"required"`
}

func (r *OrganizationController) deleteOrganization(c *fiber.Ctx) error {
	req := new(deleteRequest)
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return utils.StandardCouldNotParse(c)
		}
	}
	if len(req.OrganizationName) == 0 {
		if err := c.QueryParser(req); err != nil {
			return utils.StandardCouldNotParse(c)
		}
	}
	if err := utils.Validate(req); err != nil {
		return err
	}

	if err := r.Manager.Delete(c.Context(), req.OrganizationName, utils.PrincipalFrom(c)); err != nil {
		return lifecycleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"detail": "Organization deleted",
	})
}
