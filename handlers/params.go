package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// ParamID reads a positive numeric route parameter
func ParamID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// PageParams reads page and limit from the query string
func PageParams(c *fiber.Ctx) (int, int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	return page, limit
}
