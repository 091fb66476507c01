package handler

import (
	"cinema_ticketing/constants"
	"cinema_ticketing/helper"
	"cinema_ticketing/model"
	"cinema_ticketing/settlement"
	"cinema_ticketing/utils"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) Login(c *fiber.Ctx) error {
	input := c.Locals("loginInput").(model.LoginInput)

	customer, err := h.store.FindCustomerByEmail(c.UserContext(), input.Email)
	if errors.Is(err, settlement.ErrCustomerNotFound) {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.INVALID_CREDENTIALS, nil)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if !customer.IsActive || !helper.CheckPasswordHash(input.Password, customer.Password) {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.INVALID_CREDENTIALS, nil)
	}

	accessToken, err := helper.GenerateAccessToken(h.jwtSecret, model.TokenClaim{
		CustomerId: customer.ID,
		Email:      customer.Email,
		Role:       customer.Role,
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Expires:  time.Now().Add(helper.AccessTokenTTL),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return utils.SuccessResponse(c, fiber.StatusOK, model.TokenData{AccessToken: accessToken})
}
