package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studyplan-api/internal/calendar"
	"github.com/noah-isme/studyplan-api/internal/models"
	appErrors "github.com/noah-isme/studyplan-api/pkg/errors"
)

// dateClock resolves "today" in the configured time zone.
type dateClock struct {
	loc *time.Location
	now func() time.Time
}

func newDateClock(loc *time.Location) dateClock {
	if loc == nil {
		loc = time.UTC
	}
	return dateClock{loc: loc, now: time.Now}
}

func (c dateClock) today() models.Date {
	return models.DateOf(c.now().In(c.loc))
}

// dateQuery reads a YYYY-MM-DD query parameter, defaulting to today when absent.
func (c dateClock) dateQuery(ctx *gin.Context, key string) (models.Date, error) {
	raw := strings.TrimSpace(ctx.Query(key))
	if raw == "" {
		return c.today(), nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return models.Date{}, appErrors.Invalid("%s must be formatted as YYYY-MM-DD", key)
	}
	return d, nil
}

// rangeQuery reads from/to query parameters. from defaults to today, to to
// the sixth day after from.
func (c dateClock) rangeQuery(ctx *gin.Context) (models.Date, models.Date, error) {
	from, err := c.dateQuery(ctx, "from")
	if err != nil {
		return models.Date{}, models.Date{}, err
	}
	if strings.TrimSpace(ctx.Query("to")) == "" {
		return from, from.AddDays(6), nil
	}
	to, err := c.dateQuery(ctx, "to")
	return from, to, err
}

func rangeMeta(from, to models.Date) map[string]interface{} {
	return map[string]interface{}{"from": from.String(), "to": to.String()}
}

func semesterParam(c *gin.Context) (models.SemesterID, error) {
	sem, err := models.ParseSemesterID(c.Param("semester"))
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "semester must be 1 or 2")
	}
	return sem, nil
}

func invalidPayload(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
}

func issuesMeta(issues []calendar.Issue) map[string]interface{} {
	if len(issues) == 0 {
		return nil
	}
	return map[string]interface{}{"issues": issues}
}
