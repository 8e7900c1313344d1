package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/artlearn/core/material"
)

type materialApi struct {
	s *Server
}

func registerMaterialAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *Server) {
	api := materialApi{s: s}
	admin := s.adminMiddleware()

	mg := g.Group("/materials")
	mg.GET("", api.query)
	mg.GET("/:id", api.retrieve)
	mg.POST("", api.create, jwt, admin)
	mg.DELETE("/:id", api.destroy, jwt, admin)

	g.GET("/files/:filename", api.download)
}

func (api *materialApi) query(ctx echo.Context) error {
	filter := new(material.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()

	mats, err := api.s.deps.MaterialSvc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying materials")
	}
	if mats == nil {
		mats = []material.Material{}
	}
	return ctx.JSON(http.StatusOK, mats)
}

func (api *materialApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	mat, err := api.s.deps.MaterialSvc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding material by ID")
	}
	return ctx.JSON(http.StatusOK, mat)
}

func (api *materialApi) create(ctx echo.Context) error {
	var data material.NewMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaterial")
	}
	if err := data.Validate(api.s.deps.Validate); err != nil {
		return err
	}

	var upload *material.Upload
	fh, err := ctx.FormFile("file")
	if err != nil && err != http.ErrMissingFile && err != http.ErrNotMultipart {
		return errors.Wrap(err, "reading multipart file")
	}
	if fh != nil {
		src, err := fh.Open()
		if err != nil {
			return errors.Wrap(err, "opening multipart file")
		}
		defer func() { _ = src.Close() }()
		upload = &material.Upload{Name: fh.Filename, Size: fh.Size, Content: src}
	}

	usr, err := api.s.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	mat, err := api.s.deps.MaterialSvc.Create(ctx.Request().Context(), data, upload, usr.ID)
	if err != nil {
		return errors.Wrap(err, "creating material")
	}
	return ctx.JSON(http.StatusCreated, mat)
}

func (api *materialApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = api.s.deps.MaterialSvc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting material")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Material deleted successfully"})
}

func (api *materialApi) download(ctx echo.Context) error {
	path, err := api.s.deps.Files.Path(ctx.Param("filename"))
	if err != nil {
		return errHttpNotFound
	}
	return ctx.File(path)
}
