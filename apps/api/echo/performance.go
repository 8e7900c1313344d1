package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/artlearn/core"
	"github.com/trezcool/artlearn/core/analytics"
	"github.com/trezcool/artlearn/services/spreadsheet"
)

type performanceApi struct {
	s   *Server
	now func() time.Time
}

func registerPerformanceAPI(g *echo.Group, s *Server) {
	api := performanceApi{s: s, now: time.Now}

	pg := g.Group("/performance")
	pg.GET("", api.retrieve)
	pg.GET("/export", api.export)
}

func (api *performanceApi) aggregate(ctx echo.Context) (analytics.Views, error) {
	tf, err := analytics.ParseTimeframe(ctx.QueryParam("timeframe"))
	if err != nil {
		return analytics.Views{}, core.NewValidationError(err, core.FieldError{Field: "timeframe", Error: err.Error()})
	}

	reqCtx := ctx.Request().Context()
	scores, err := api.s.deps.ScoreSvc.QueryAll(reqCtx)
	if err != nil {
		return analytics.Views{}, errors.Wrap(err, "querying scores")
	}
	students, err := api.s.deps.StudentSvc.QueryAll(reqCtx)
	if err != nil {
		return analytics.Views{}, errors.Wrap(err, "querying students")
	}

	views := analytics.Aggregate(scores, students, analytics.Filters{
		Subject:   core.CleanString(ctx.QueryParam("subject")),
		Timeframe: tf,
		Now:       api.now(),
		Location:  api.s.deps.Conf.Analytics.Location(),
	})
	for _, w := range views.Warnings {
		api.s.deps.Logger.Warn(fmt.Sprintf("performance: skipped score %d: %s", w.ScoreID, w.Reason))
	}
	return views, nil
}

func (api *performanceApi) retrieve(ctx echo.Context) error {
	views, err := api.aggregate(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *performanceApi) export(ctx echo.Context) error {
	views, err := api.aggregate(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err = spreadsheet.WritePerformance(&buf, views); err != nil {
		return errors.Wrap(err, "exporting performance")
	}
	name := fmt.Sprintf("performance-%s-%s.xlsx", views.Subject, views.Timeframe)
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return ctx.Blob(http.StatusOK, spreadsheet.ContentType, buf.Bytes())
}
