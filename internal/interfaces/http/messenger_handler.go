package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jhoicas/Entregas-api/internal/application/dto"
	"github.com/jhoicas/Entregas-api/internal/domain/entity"
	"github.com/jhoicas/Entregas-api/internal/domain/repository"
	"github.com/jhoicas/Entregas-api/internal/domain/routing"
)

// MessengerHandler maneja el directorio de mensajeros (protegido).
type MessengerHandler struct {
	repo repository.MessengerRepository
}

// NewMessengerHandler construye el handler de mensajeros.
func NewMessengerHandler(repo repository.MessengerRepository) *MessengerHandler {
	return &MessengerHandler{repo: repo}
}

// Create godoc
// @Summary      Registrar mensajero
// @Tags         messengers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MessengerRequest  true  "name, phone, zones"
// @Success      201   {object}  dto.MessengerDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/messengers [post]
func (h *MessengerHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.MessengerRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "name es requerido"})
	}
	now := time.Now()
	m := &entity.Messenger{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Name:      in.Name,
		Phone:     in.Phone,
		Zones:     normalizeZones(in.Zones),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Active != nil {
		m.Active = *in.Active
	}
	if err := h.repo.Create(m); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(toMessengerDTO(m))
}

// List godoc
// @Summary      Listar mensajeros
// @Tags         messengers
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.MessengerDTO
// @Router       /api/messengers [get]
func (h *MessengerHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	list, err := h.repo.List(companyID, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.MessengerDTO, 0, len(list))
	for _, m := range list {
		out = append(out, toMessengerDTO(m))
	}
	return c.JSON(fiber.Map{"total": len(out), "messengers": out})
}

// Update godoc
// @Summary      Actualizar mensajero
// @Tags         messengers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "ID del mensajero"
// @Param        body  body  dto.MessengerRequest  true  "campos a actualizar"
// @Success      200   {object}  dto.MessengerDTO
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/messengers/{id} [put]
func (h *MessengerHandler) Update(c *fiber.Ctx) error {
	m, err := h.repo.GetByID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if m == nil || m.CompanyID != GetCompanyID(c) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "mensajero no encontrado"})
	}
	var in dto.MessengerRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Name != "" {
		m.Name = in.Name
	}
	if in.Phone != "" {
		m.Phone = in.Phone
	}
	if in.Zones != nil {
		m.Zones = normalizeZones(in.Zones)
	}
	if in.Active != nil {
		m.Active = *in.Active
	}
	m.UpdatedAt = time.Now()
	if err := h.repo.Update(m); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(toMessengerDTO(m))
}

func toMessengerDTO(m *entity.Messenger) dto.MessengerDTO {
	return dto.MessengerDTO{
		ID:     m.ID,
		Name:   m.Name,
		Phone:  m.Phone,
		Zones:  m.Zones,
		Active: m.Active,
	}
}

// normalizeZones normaliza la cobertura declarada a claves de zona.
func normalizeZones(zones []string) []string {
	out := make([]string, 0, len(zones))
	for _, z := range zones {
		if key := routing.NormalizeZone(z); key != "" {
			out = append(out, key)
		}
	}
	return out
}
