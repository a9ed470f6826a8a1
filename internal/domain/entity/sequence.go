package entity

// Series de numeración por tenant.
const (
	SeriesCashSession   = "cash_session"
	SeriesMovement      = "movement"
	SeriesReceivable    = "receivable"
	SeriesPayable       = "payable"
	SeriesSale          = "sale"
	SeriesServiceOrder  = "service_order"
	SeriesStockMovement = "stock_movement"
)
