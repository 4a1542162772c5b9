// routes.go
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
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/shelter-intake/internal/config"
	"github.com/localnerve/shelter-intake/internal/middleware"
	"gorm.io/gorm"
)

// RegisterRoutes mounts every API route on api.
// Catalog reads are public, intake work needs staff, catalog changes and deletes need admin.
func RegisterRoutes(api fiber.Router, db *gorm.DB, cfg *config.Config, auth *middleware.Auth) {
	staff := auth.Staff()
	admin := auth.Admin()

	health := &HealthHandler{DB: db, Config: cfg}
	api.Get("/health", health.Health)

	forms := &FormHandler{DB: db}
	api.Get("/intakeForms", forms.ListForms)
	api.Get("/intakeForms/:id", forms.GetForm)
	api.Post("/intakeForms", admin, forms.CreateForm)
	api.Patch("/intakeForms/:id", admin, forms.UpdateForm)
	api.Delete("/intakeForms/:id", admin, forms.DeleteForm)

	// reorder is registered before /:id so it is not taken for an id
	questions := &QuestionHandler{DB: db, DefaultFormKey: cfg.DefaultFormKey}
	api.Get("/formQuestions", questions.ListQuestions)
	api.Patch("/formQuestions/reorder", admin, questions.ReorderQuestions)
	api.Get("/formQuestions/:id", questions.GetQuestion)
	api.Post("/formQuestions", admin, questions.CreateQuestion)
	api.Patch("/formQuestions/:id", admin, questions.UpdateQuestion)
	api.Patch("/formQuestions/:id/visibility", admin, questions.SetVisibility)
	api.Delete("/formQuestions/:id", admin, questions.DeleteQuestion)

	responses := &ResponseHandler{DB: db, DefaultFormKey: cfg.DefaultFormKey}
	ir := api.Group("/intakeResponses")
	ir.Post("", staff, responses.SubmitResponses)
	ir.Get("/form/:formId/export", staff, responses.Export)
	ir.Get("/form/:formId", staff, responses.ListByForm)
	ir.Get("/session/:sessionId", staff, responses.GetSession)
	ir.Put("/session/:sessionId", staff, responses.UpdateSession)
	ir.Patch("/session/:sessionId/client", staff, responses.AttachClient)
	ir.Delete("/session/:sessionId", admin, responses.DeleteSession)
	ir.Get("/client/:clientId", staff, responses.ByClient)

	intake := &IntakeClientHandler{DB: db, DefaultFormKey: cfg.DefaultFormKey}
	api.Post("/intakeClients", staff, intake.CreateIntakeClient)
	api.Get("/intakeClients/:id", staff, intake.GetIntakeClient)

	clients := &ClientHandler{DB: db}
	api.Get("/clients", staff, clients.ListClients)
	api.Post("/clients/match", staff, clients.MatchClient)
	api.Post("/clients", staff, clients.CreateClient)
	api.Get("/clients/:id", staff, clients.GetClient)
	api.Patch("/clients/:id", staff, clients.UpdateClient)
	api.Delete("/clients/:id", admin, clients.DeleteClient)
}
