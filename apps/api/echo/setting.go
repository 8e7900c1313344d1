package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/artlearn/core/setting"
)

type settingApi struct {
	s *Server
}

func registerSettingAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *Server) {
	api := settingApi{s: s}

	sg := g.Group("/settings", jwt, s.adminMiddleware())
	sg.GET("/:key", api.retrieve)
	sg.PUT("/:key", api.update)
}

func (api *settingApi) retrieve(ctx echo.Context) error {
	st, err := api.s.deps.SettingSvc.Get(ctx.Request().Context(), ctx.Param("key"))
	if err != nil {
		return errors.Wrap(err, "finding setting by key")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *settingApi) update(ctx echo.Context) error {
	var data setting.UpdateSetting
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSetting")
	}
	if err := data.Validate(api.s.deps.Validate); err != nil {
		return err
	}

	st, err := api.s.deps.SettingSvc.Set(ctx.Request().Context(), ctx.Param("key"), data.Value)
	if err != nil {
		return errors.Wrap(err, "updating setting")
	}
	return ctx.JSON(http.StatusOK, st)
}
