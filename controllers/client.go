package controllers

import (
	"net/http"
	"strings"

	"barberpro-backend/models"
	"barberpro-backend/repository"
	"barberpro-backend/validation"

	"github.com/gin-gonic/gin"
)

const duplicateClient = "Ya existe un cliente con esa cédula/RUC"

// ClientInput is shared by create and update.
type ClientInput struct {
	Name     string `json:"name" validate:"required,max=100" label:"nombre"`
	IDNumber string `json:"id_number" validate:"required,max=20" label:"cédula/RUC"`
	Phone    string `json:"phone" validate:"required,max=20" label:"teléfono"`
}

func (in *ClientInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.IDNumber = strings.TrimSpace(in.IDNumber)
	in.Phone = strings.TrimSpace(in.Phone)
}

func (in *ClientInput) model() *models.Client {
	return &models.Client{Name: in.Name, IDNumber: in.IDNumber, Phone: in.Phone}
}

type ClientController struct {
	Clients   *repository.Repository[models.Client]
	Validator *validation.Validator
}

// ListClients returns clients by name; ?q= matches name, id_number or phone.
func (cc *ClientController) ListClients(c *gin.Context) {
	qs := []repository.Query{repository.OrderBy("name ASC")}
	if q := strings.ToLower(strings.TrimSpace(c.Query("q"))); q != "" {
		qs = append(qs, repository.Contains(q, "LOWER(name)", "LOWER(id_number)", "phone"))
	}

	clients, err := cc.Clients.List(c.Request.Context(), qs...)
	if err != nil {
		respondDataError(c, "ListClients", "obtener los clientes", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

func (cc *ClientController) GetClient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	client, err := cc.Clients.Get(c.Request.Context(), id)
	if err != nil {
		respondDataError(c, "GetClient", "obtener el cliente", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": client})
}

func (cc *ClientController) CreateClient(c *gin.Context) {
	var input ClientInput
	if !bindForm(c, cc.Validator, &input) {
		return
	}

	client := input.model()
	if err := cc.Clients.Create(c.Request.Context(), client); err != nil {
		respondDataError(c, "CreateClient", "crear el cliente", err, duplicateClient)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Cliente creado", "client": client})
}

func (cc *ClientController) UpdateClient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input ClientInput
	if !bindForm(c, cc.Validator, &input) {
		return
	}

	client := input.model()
	if err := cc.Clients.Update(c.Request.Context(), id, client); err != nil {
		respondDataError(c, "UpdateClient", "actualizar el cliente", err, duplicateClient)
		return
	}
	updated, err := cc.Clients.Get(c.Request.Context(), id)
	if err != nil {
		respondDataError(c, "UpdateClient", "actualizar el cliente", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cliente actualizado", "client": updated})
}

// DeleteClient keeps the client's work records; their client_id becomes null.
func (cc *ClientController) DeleteClient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := cc.Clients.Delete(c.Request.Context(), id); err != nil {
		respondDataError(c, "DeleteClient", "eliminar el cliente", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cliente eliminado"})
}
