package handler

import (
	"github.com/labstack/echo/v4"

	"duochat/internal/adapter/api/middleware"
	"duochat/internal/usecase"
	"duochat/pkg/errors"
	"duochat/pkg/response"
	"duochat/pkg/utils"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.GetProfile(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

// ListUsers returns the directory without the caller, for picking someone to chat with.
func (h *UserHandler) ListUsers(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return response.Error(c, err)
	}

	pagination := utils.GetPaginationParams(c)
	users, total, err := h.userUseCase.ListOthers(c.Request().Context(), uid, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, users, total, pagination.Page, pagination.PageSize)
}

func (h *UserHandler) UpdateProfilePhoto(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return response.Error(c, err)
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return response.Error(c, errors.BadRequest("photo is required", err))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.BadRequest("Failed to read uploaded file", err))
	}
	defer file.Close()

	user, err := h.userUseCase.UpdateProfileImage(c.Request().Context(), uid, file)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}
