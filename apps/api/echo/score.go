package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/artlearn/core"
	"github.com/trezcool/artlearn/core/score"
)

type scoreApi struct {
	s *Server
}

func registerScoreAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *Server) {
	api := scoreApi{s: s}

	sg := g.Group("/scores")
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.POST("", api.create, jwt, s.adminMiddleware())
}

func (api *scoreApi) query(ctx echo.Context) error {
	if err := checkIntQueryParams(ctx, "studentId"); err != nil {
		return err
	}
	filter := new(score.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	scores, err := api.s.deps.ScoreSvc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying scores")
	}
	if scores == nil {
		scores = []score.Score{}
	}
	return ctx.JSON(http.StatusOK, scores)
}

func (api *scoreApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	sc, err := api.s.deps.ScoreSvc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding score by ID")
	}
	return ctx.JSON(http.StatusOK, sc)
}

func (api *scoreApi) create(ctx echo.Context) error {
	var req NewScoreRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding to NewScoreRequest")
	}
	data, err := req.NewScore()
	if err != nil {
		return err
	}
	if err = data.Validate(api.s.deps.Validate); err != nil {
		return err
	}

	usr, err := api.s.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sc, err := api.s.deps.ScoreSvc.Create(ctx.Request().Context(), data, usr.ID)
	if err != nil {
		return errors.Wrap(err, "creating score")
	}
	return ctx.JSON(http.StatusCreated, sc)
}

// NewScoreRequest is a score.NewScore whose test date travels as a string.
type NewScoreRequest struct {
	StudentID   int    `json:"studentId"`
	StudentName string `json:"studentName"`
	Subject     string `json:"subject"`
	Marks       string `json:"marks"`
	MaxMarks    string `json:"maxMarks"`
	TestDate    string `json:"testDate"`
}

func (r NewScoreRequest) NewScore() (score.NewScore, error) {
	ns := score.NewScore{
		StudentID:   r.StudentID,
		StudentName: r.StudentName,
		Subject:     r.Subject,
		Marks:       r.Marks,
		MaxMarks:    r.MaxMarks,
	}
	if core.CleanString(r.TestDate) == "" {
		return ns, nil // reported as required
	}
	testDate, err := score.ParseTestDate(r.TestDate)
	if err != nil {
		return ns, core.NewValidationError(err, core.FieldError{Field: "testDate", Error: err.Error()})
	}
	ns.TestDate = testDate
	return ns, nil
}
