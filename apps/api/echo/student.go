package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/artlearn/core/student"
)

type studentApi struct {
	s *Server
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *Server) {
	api := studentApi{s: s}

	sg := g.Group("/students", jwt, s.adminMiddleware())
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.GET("/:id", api.retrieve)

	// student portal gate
	g.POST("/student/validate", api.validateKey)
}

func (api *studentApi) query(ctx echo.Context) error {
	stds, err := api.s.deps.StudentSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if stds == nil {
		stds = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, stds)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.s.deps.Validate); err != nil {
		return err
	}

	std, err := api.s.deps.StudentSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	std, err := api.s.deps.StudentSvc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding student by ID")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) validateKey(ctx echo.Context) error {
	var data ValidateKeyRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ValidateKeyRequest")
	}

	valid, err := api.s.deps.SettingSvc.CheckStudentKey(ctx.Request().Context(), data.SecretKey)
	if err != nil {
		return errors.Wrap(err, "checking student secret key")
	}
	if !valid {
		return errInvalidSecretKey
	}
	return ctx.JSON(http.StatusOK, ValidateKeyResponse{Valid: true})
}

type (
	ValidateKeyRequest struct {
		SecretKey string `json:"secretKey"`
	}

	ValidateKeyResponse struct {
		Valid bool `json:"valid"`
	}
)
