package handler

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"doclib/internal/http/middleware"
	"doclib/internal/model"
	"doclib/internal/service"
)

// initUploadBody is the request body of POST /upload/direct/init.
type initUploadBody struct {
	Filename      string `json:"filename"`
	ContentType   string `json:"content_type"`
	Size          int64  `json:"size"`
	CategoryID    int64  `json:"category_id"`
	SubcategoryID *int64 `json:"subcategory_id,omitempty"`
}

// finalizeUploadBody is the request body of POST /upload/direct/finalize.
// The metadata must repeat what was declared at init.
type finalizeUploadBody struct {
	StorageKey    string `json:"storage_key"`
	Filename      string `json:"filename"`
	ContentType   string `json:"content_type"`
	Size          int64  `json:"size"`
	CategoryID    int64  `json:"category_id"`
	SubcategoryID *int64 `json:"subcategory_id,omitempty"`
}

// reorderBody is the request body of POST /documents/reorder.
type reorderBody struct {
	CategoryID    int64    `json:"category_id"`
	SubcategoryID *int64   `json:"subcategory_id,omitempty"`
	OrderedIDs    []string `json:"ordered_ids"`
}

// moveBody is the request body of POST /documents/:id/move.
type moveBody struct {
	CategoryID    int64  `json:"category_id"`
	SubcategoryID *int64 `json:"subcategory_id,omitempty"`
}

// scopeFromQuery parses category_id (required) and subcategory_id (optional)
// query parameters into a scope.
func scopeFromQuery(c *fiber.Ctx) (model.Scope, error) {
	categoryID, err := strconv.ParseInt(c.Query("category_id"), 10, 64)
	if err != nil {
		return model.Scope{}, fmt.Errorf("invalid category_id")
	}
	scope := model.Scope{CategoryID: categoryID}
	if raw := c.Query("subcategory_id"); raw != "" {
		subID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return model.Scope{}, fmt.Errorf("invalid subcategory_id")
		}
		scope.SubcategoryID = &subID
	}
	return scope, nil
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin: parse, delegate, translate errors.
func RegisterRoutes(app *fiber.App, db *sql.DB, uploadSvc service.UploadService, docSvc service.DocumentService, reorderSvc service.ReorderService) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	// Health endpoint: checks DB connectivity only
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	})

	// Simple liveness probe
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	// Single-shot upload (multipart/form-data, field name: file).
	// Embedded backend only; the external backend uses the direct protocol.
	app.Post("/upload", func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		categoryID, err := strconv.ParseInt(c.FormValue("category_id"), 10, 64)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_CATEGORY", "invalid category_id")
		}
		var subcategoryID *int64
		if raw := c.FormValue("subcategory_id"); raw != "" {
			subID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_SUBCATEGORY", "invalid subcategory_id")
			}
			subcategoryID = &subID
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		doc, err := uploadSvc.Upload(c.UserContext(), middleware.IdentityFromCtx(c), service.UploadRequest{
			Filename:      fh.Filename,
			ContentType:   ct,
			Size:          fh.Size,
			CategoryID:    categoryID,
			SubcategoryID: subcategoryID,
			Reader:        f,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	})

	// Direct upload, step 1: declare metadata, receive a presigned URL
	app.Post("/upload/direct/init", func(c *fiber.Ctx) error {
		var body initUploadBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		res, err := uploadSvc.InitDirectUpload(c.UserContext(), middleware.IdentityFromCtx(c), service.InitUploadRequest{
			Filename:      body.Filename,
			ContentType:   body.ContentType,
			Size:          body.Size,
			CategoryID:    body.CategoryID,
			SubcategoryID: body.SubcategoryID,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})

	// Direct upload, step 2: commit metadata after the client transferred bytes
	app.Post("/upload/direct/finalize", func(c *fiber.Ctx) error {
		var body finalizeUploadBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		doc, err := uploadSvc.FinalizeDirectUpload(c.UserContext(), middleware.IdentityFromCtx(c), service.FinalizeUploadRequest{
			StorageKey:    body.StorageKey,
			Filename:      body.Filename,
			ContentType:   body.ContentType,
			Size:          body.Size,
			CategoryID:    body.CategoryID,
			SubcategoryID: body.SubcategoryID,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	})

	// List one scope's documents in display order
	app.Get("/documents", func(c *fiber.Ctx) error {
		scope, err := scopeFromQuery(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_SCOPE", err.Error())
		}

		listing, err := docSvc.ListScope(c.UserContext(), middleware.IdentityFromCtx(c), scope)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(listing)
	})

	// Persist a scope's manual display order
	app.Post("/documents/reorder", func(c *fiber.Ctx) error {
		var body reorderBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		scope := model.Scope{CategoryID: body.CategoryID, SubcategoryID: body.SubcategoryID}

		if err := reorderSvc.Reorder(c.UserContext(), middleware.IdentityFromCtx(c), scope, body.OrderedIDs); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Get document by ID
	app.Get("/documents/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := docSvc.Get(c.UserContext(), middleware.IdentityFromCtx(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	})

	// Move document to another scope, appended at the end of its order
	app.Post("/documents/:id/move", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body moveBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		target := model.Scope{CategoryID: body.CategoryID, SubcategoryID: body.SubcategoryID}

		doc, err := docSvc.Reassign(c.UserContext(), middleware.IdentityFromCtx(c), id, target)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	})

	// Delete document by ID
	app.Delete("/documents/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := docSvc.Delete(c.UserContext(), middleware.IdentityFromCtx(c), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Download (attachment) and view (inline)
	app.Get("/documents/:id/download", serveContent(docSvc, false))
	app.Get("/documents/:id/view", serveContent(docSvc, true))

	// The caller's recent downloads, newest first
	app.Get("/downloads", func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "20"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		records, err := docSvc.History(c.UserContext(), middleware.IdentityFromCtx(c), limit)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"items": records, "total": len(records)})
	})

	// Cascade deletes
	app.Delete("/categories/:id", func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := docSvc.DeleteCategory(c.UserContext(), middleware.IdentityFromCtx(c), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Delete("/subcategories/:id", func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := docSvc.DeleteSubcategory(c.UserContext(), middleware.IdentityFromCtx(c), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// serveContent resolves a document to either a redirect to a presigned URL
// (external backend) or a streamed body (embedded backend).
func serveContent(docSvc service.DocumentService, inline bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var (
			res *service.DownloadResult
			err error
		)
		if inline {
			res, err = docSvc.View(c.UserContext(), middleware.IdentityFromCtx(c), id)
		} else {
			res, err = docSvc.Download(c.UserContext(), middleware.IdentityFromCtx(c), id)
		}
		if err != nil {
			return writeServiceError(c, err)
		}

		if res.URL != "" {
			return c.Redirect(res.URL, fiber.StatusTemporaryRedirect)
		}

		disposition := "attachment"
		if inline {
			disposition = "inline"
		}
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("%s; filename=%q", disposition, res.Doc.Filename))
		if res.Info.ContentType != "" {
			c.Set(fiber.HeaderContentType, res.Info.ContentType)
		}
		return c.SendStream(res.Content, int(res.Info.Size))
	}
}
