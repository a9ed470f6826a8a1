package entity

// Tenant llave compuesta (tienda, empresa) que delimita todos los datos.
type Tenant struct {
	StoreID   string
	CompanyID string
}

// IsZero indica si el tenant no fue informado.
func (t Tenant) IsZero() bool {
	return t.StoreID == "" || t.CompanyID == ""
}

// String forma canónica "store/company" (llaves de bloqueo y logs).
func (t Tenant) String() string {
	return t.StoreID + "/" + t.CompanyID
}
