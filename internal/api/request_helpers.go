package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/api/shared"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/store"
)

// respondError forwards to the shared response helper; it exists so
// handlers in this package read uniformly.
func respondError(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	shared.RespondWithErrorAndLog(w, r, status, msg, err)
}

// listQuery captures the query-string options of the list endpoints.
type listQuery struct {
	Filter    store.TaskFilter
	Opts      store.PageOptions
	ProjectBy []string
	Populate  string
}

// parseListQuery reads filter and pagination options from the query
// string. Unknown or malformed numeric values fall back to defaults;
// filter fields the route forces are overridden by the caller after
// parsing.
func parseListQuery(values url.Values) listQuery {
	q := listQuery{}

	q.Filter.Title = values.Get("title")
	if owner := values.Get("owner"); owner != "" {
		if id, err := uuid.Parse(owner); err == nil {
			q.Filter.OwnerID = id
		}
	}
	if tags := values.Get("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				q.Filter.Tags = append(q.Filter.Tags, tag)
			}
		}
	}
	if status := values.Get("status"); status != "" {
		q.Filter.Status = domain.TaskStatus(strings.ToUpper(status))
	}
	if completed := values.Get("isCompleted"); completed != "" {
		if b, err := strconv.ParseBool(completed); err == nil {
			q.Filter.IsCompleted = &b
		}
	}

	if sortBy := values.Get("sortBy"); sortBy != "" {
		q.Opts.SortBy = strings.Split(sortBy, ",")
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil {
		q.Opts.Limit = limit
	}
	if page, err := strconv.Atoi(values.Get("page")); err == nil {
		q.Opts.Page = page
	}

	if projectBy := values.Get("projectBy"); projectBy != "" {
		q.ProjectBy = strings.Split(projectBy, ",")
	}
	q.Populate = values.Get("populate")

	return q
}

// taskPayload renders a task as the wire representation. Returning a
// map keeps projection and owner population cheap to apply.
func taskPayload(task *domain.Task) map[string]any {
	tags := task.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{
		"id":          task.ID,
		"owner":       task.OwnerID,
		"title":       task.Title,
		"description": task.Description,
		"status":      task.Status,
		"view_count":  task.ViewCount,
		"isCompleted": task.IsCompleted,
		"tags":        tags,
		"createdAt":   task.CreatedAt,
		"updatedAt":   task.UpdatedAt,
	}
}

// applyProjection applies projectBy entries of the form "field:hide" or
// "field:include" to the payload. Any include entry switches the
// projection to keep-only-listed; hide entries remove fields. The id is
// never projected away.
func applyProjection(payload map[string]any, projectBy []string) {
	if len(projectBy) == 0 {
		return
	}

	includes := map[string]bool{}
	for _, entry := range projectBy {
		field, mode, _ := strings.Cut(entry, ":")
		field = strings.TrimSpace(field)
		if field == "" || field == "id" {
			continue
		}
		switch strings.ToLower(mode) {
		case "hide":
			delete(payload, field)
		case "include":
			includes[field] = true
		}
	}

	if len(includes) > 0 {
		for key := range payload {
			if key != "id" && !includes[key] {
				delete(payload, key)
			}
		}
	}
}
