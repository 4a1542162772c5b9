// common.go
//
// Shelter intake case-management data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of shelter-intake.
// shelter-intake is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// shelter-intake is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with shelter-intake.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/shelter-intake/internal/filters"
	"github.com/localnerve/shelter-intake/internal/services"
	"github.com/localnerve/shelter-intake/internal/types"
)

// parseID reads a positive integer path parameter
func parseID(c *fiber.Ctx, name string) (uint64, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, types.NewValidationError("%s must be a positive integer, got %q", name, raw)
	}
	return id, nil
}

// queryUint reads an optional non-negative integer query parameter
func queryUint(c *fiber.Ctx, name string) (uint64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, types.NewValidationError("%s must be a non-negative integer, got %q", name, raw)
	}
	return v, nil
}

// queryBool reads an optional boolean query parameter
func queryBool(c *fiber.Ctx, name string, def bool) (bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, types.NewValidationError("%s must be true or false, got %q", name, raw)
	}
	return v, nil
}

// parsePage reads the page and pageSize query parameters
func parsePage(c *fiber.Ctx) services.Page {
	return services.Page{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("pageSize", services.DefaultPageSize),
	}
}

// parseFilter reads the structured filter query parameter
func parseFilter(c *fiber.Ctx) (*filters.Filter, error) {
	return filters.Parse(c.Query("filter"))
}

// parseBody decodes a JSON body, reporting malformed input as a validation error
func parseBody(c *fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return types.NewValidationError("request body is required")
	}
	if err := c.BodyParser(dst); err != nil {
		return types.NewValidationError("invalid request body: %v", err)
	}
	return nil
}
