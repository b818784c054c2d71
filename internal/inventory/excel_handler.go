package inventory

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"inventory-backend/internal/auth"
	"inventory-backend/internal/models"
	"inventory-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const exportSheet = "Items"

type ImportAdjustmentsResponse struct {
	Applied int      `json:"applied"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// POST /api/items/import-adjustments (multipart, field "file")
// Columns: item code | change | note (optional). A header row is detected by
// its first cell and skipped. Each row goes through the same adjustment as
// PATCH /items/:id/adjust, so one bad row does not undo the others.
func ImportAdjustmentsHandler(db *gorm.DB, svc *stock.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file is required")
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "only .xlsx files are accepted")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not open upload")
		}
		defer file.Close()

		xl, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not read excel file: "+err.Error())
		}
		defer xl.Close()

		sheets := xl.GetSheetList()
		if len(sheets) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "excel file has no sheets")
		}
		rows, err := xl.GetRows(sheets[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not read sheet: "+err.Error())
		}

		start := 0
		if len(rows) > 0 && len(rows[0]) > 0 && strings.Contains(strings.ToUpper(rows[0][0]), "CODE") {
			start = 1
		}

		res := ImportAdjustmentsResponse{Errors: make([]string, 0)}
		performer := auth.CurrentUserID(c)

		for i := start; i < len(rows); i++ {
			row := rows[i]
			line := i + 1
			if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
				continue
			}
			if len(row) < 2 {
				res.Skipped++
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: change is missing", line))
				continue
			}

			code := strings.TrimSpace(row[0])
			change, err := strconv.Atoi(strings.TrimSpace(row[1]))
			if err != nil || change == 0 {
				res.Skipped++
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: change must be a non-zero integer", line))
				continue
			}
			note := "excel import"
			if len(row) > 2 && strings.TrimSpace(row[2]) != "" {
				note = strings.TrimSpace(row[2])
			}

			var it models.Item
			if err := db.WithContext(c.UserContext()).Select("id").First(&it, "code = ?", code).Error; err != nil {
				res.Skipped++
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: item %s not found", line, code))
				continue
			}

			_, err = svc.Adjust(c.UserContext(), stock.AdjustRequest{ItemID: it.ID, Delta: change, Note: note, PerformedBy: performer})
			if err != nil {
				res.Skipped++
				if errors.Is(err, stock.ErrInvalidAdjustment) {
					res.Errors = append(res.Errors, fmt.Sprintf("row %d: %s would go below zero", line, code))
				} else {
					log.Printf("import row %d (%s): %v", line, code, err)
					res.Errors = append(res.Errors, fmt.Sprintf("row %d: could not adjust %s", line, code))
				}
				continue
			}
			res.Applied++
		}

		log.Printf("adjustment import %s: %d applied, %d skipped", fileHeader.Filename, res.Applied, res.Skipped)
		return c.JSON(res)
	}
}

type exportRow struct {
	Code         string
	Name         string
	CategoryName string
	Buffer       int
	Quantity     int
}

// GET /api/items/export
func ExportItemsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var rows []exportRow
		err := db.WithContext(c.UserContext()).
			Table("items").
			Select("items.code, items.name, categories.name AS category_name, categories.buffer, items.quantity").
			Joins("JOIN categories ON categories.id = items.category_id").
			Order("categories.name asc, items.code asc").
			Scan(&rows).Error
		if err != nil {
			return httpError(err, "could not export items")
		}

		xl := excelize.NewFile()
		defer xl.Close()
		if err := xl.SetSheetName("Sheet1", exportSheet); err != nil {
			return httpError(err, "could not build excel file")
		}

		if err := xl.SetSheetRow(exportSheet, "A1", &[]any{"Code", "Name", "Category", "Category Buffer", "Quantity"}); err != nil {
			return httpError(err, "could not build excel file")
		}
		for i, r := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			if err := xl.SetSheetRow(exportSheet, cell, &[]any{r.Code, r.Name, r.CategoryName, r.Buffer, r.Quantity}); err != nil {
				return httpError(err, "could not build excel file")
			}
		}

		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="items.xlsx"`)
		return xl.Write(c.Response().BodyWriter())
	}
}
