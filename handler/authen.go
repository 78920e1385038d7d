package handler

import (
	"errors"
	"strings"

	"bakery_manager/constants"
	"bakery_manager/database"
	"bakery_manager/helper"
	"bakery_manager/model"
	"bakery_manager/utils"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) Register(c *fiber.Ctx) error {
	input := c.Locals("input").(model.RegisterCustomerInput)
	ctx := c.UserContext()

	hash, err := helper.HashPassword(input.Password)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	customer := &model.Customer{
		Email:    model.NormalizeEmail(input.Email),
		Phone:    strings.TrimSpace(input.Phone),
		Password: hash,
		FullName: strings.TrimSpace(input.FullName),
		Role:     constants.ROLE_CUSTOMER,
	}
	if err := h.Store.CreateCustomer(ctx, customer); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return utils.ErrorResponse(c, fiber.StatusConflict, constants.EMAIL_ALREADY_REGISTERED, nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return h.issueToken(c, fiber.StatusCreated, customer)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	input := c.Locals("input").(model.LoginInput)

	customer, err := h.Store.FindCustomerByEmail(c.UserContext(), model.NormalizeEmail(input.Email))
	if errors.Is(err, database.ErrNotFound) {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.INVALID_CREDENTIALS, nil)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if !helper.CheckPasswordHash(input.Password, customer.Password) {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.INVALID_CREDENTIALS, nil)
	}

	return h.issueToken(c, fiber.StatusOK, customer)
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	c.ClearCookie(constants.COOKIE_ACCESS_TOKEN)
	return c.JSON(fiber.Map{"message": "logout success"})
}

func (h *Handler) Me(c *fiber.Ctx) error {
	claim, ok := helper.GetInfoCustomerFromToken(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.LOGIN_REQUIRED, nil)
	}
	customer, err := h.Store.GetCustomer(c.UserContext(), claim.CustomerId)
	if errors.Is(err, database.ErrNotFound) {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.LOGIN_REQUIRED, nil)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, customer)
}

func (h *Handler) issueToken(c *fiber.Ctx, status int, customer *model.Customer) error {
	token, err := helper.GenerateAccessToken(h.JWTSecret, model.TokenClaim{
		CustomerId: customer.ID,
		Email:      customer.Email,
		Role:       customer.Role,
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     constants.COOKIE_ACCESS_TOKEN,
		Value:    token,
		Expires:  h.now().Add(helper.AccessTokenTTL),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   strings.HasPrefix(h.AppURL, "https://"),
		Path:     "/",
	})

	return utils.SuccessResponse(c, status, model.TokenData{AccessToken: token, Customer: customer})
}
