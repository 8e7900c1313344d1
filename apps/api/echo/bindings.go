package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/artlearn/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// pathID parses the `:id` path param. Malformed ids are reported as not found.
func pathID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// checkIntQueryParams reports every named query param that is set but is not an integer.
func checkIntQueryParams(ctx echo.Context, names ...string) error {
	var flds []core.FieldError
	for _, name := range names {
		val := ctx.QueryParam(name)
		if val == "" {
			continue
		}
		if _, err := strconv.Atoi(val); err != nil {
			flds = append(flds, core.FieldError{Field: name, Error: name + " must be an integer"})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

type SuccessResponse struct {
	Success string `json:"success"`
}
