// internal/stock/table/columns.go
package table

import (
	"context"
	"sync"

	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/storage"
	"stock-backoffice/internal/models"
)

const HeadersKey = "table-headers"

var defaultHeaders = []models.Header{
	{Text: "Номер договора", Value: "leasing_contract.leasing_contract_number", Sortable: true, Visible: true},
	{Text: "№ Лота", Value: "lot_number", Sortable: true, Visible: true},
	{Text: "Статус", Value: "status.name", Sortable: true, Visible: true},
	{Text: "Допуск к реализации", Value: "approved_for_sale", Sortable: true, Visible: true},
	{Text: "VIN", Value: "vin", Sortable: true, Visible: true},
	{Text: "Тип ТС", Value: "equipment.type_ts", Sortable: true, Visible: true},
	{Text: "Вид ТС", Value: "equipment.subtype1", Sortable: true, Visible: true},
	{Text: "Подвид ТС", Value: "equipment.subtype2", Sortable: true, Visible: true},
	{Text: "Бренд", Value: "equipment.brand", Sortable: true, Visible: true},
	{Text: "Модель", Value: "equipment.model.name", Sortable: true, Visible: true},
	{Text: "Дата оценки", Value: "valuation_details.valuation_date", Sortable: true, Visible: true},
	{Text: "Актуальная оценка", Value: "valuation", Sortable: true, Visible: true},
	{Text: "Нижняя граница рынка", Value: "market_bottom", Sortable: true, Visible: true},
	{Text: "Актуальная стоимость", Value: "price", Sortable: true, Visible: true},
	{Text: "Город", Value: "parking.region", Sortable: true, Visible: true},
	{Text: "Адрес стоянки", Value: "parking.address", Sortable: false, Visible: true},
	{Text: "Год выпуска", Value: "year", Sortable: true, Visible: true},
	{Text: "Мощность (л.с.)", Value: "equipment.engine_power_hp", Sortable: true, Visible: true},
	{Text: "Мощность (кВт)", Value: "equipment.engine_power_kw", Sortable: true, Visible: true},
	{Text: "Трансмиссия", Value: "equipment.transmission", Sortable: true, Visible: true},
	{Text: "Гос.номер", Value: "state_number", Sortable: true, Visible: true},
	{Text: "Тип кузова", Value: "equipment.body_type", Sortable: true, Visible: true},
	{Text: "Комплектация", Value: "equipment.name", Sortable: true, Visible: true},
	{Text: "Ликвидность", Value: "equipment.liquidity", Sortable: true, Visible: true},
	{Text: "Тип ПТС", Value: "pts.name", Sortable: true, Visible: true},
	{Text: "Тип двигателя", Value: "equipment.type_fuel", Sortable: true, Visible: true},
	{Text: "Категория", Value: "equipment.category", Sortable: true, Visible: true},
	{Text: "Модельный ряд", Value: "equipment.model.model_group_name", Sortable: true, Visible: true},
	{Text: "Колесная формула", Value: "equipment.wheel_formula", Sortable: true, Visible: true},
	{Text: "Объем двигателя", Value: "equipment.engine_volume", Sortable: true, Visible: true},
	{Text: "Тип движителя", Value: "equipment.mover_type.name", Sortable: true, Visible: true},
	{Text: "Снаряженная масса", Value: "equipment.curb_weight", Sortable: true, Visible: true},
	{Text: "Вес", Value: "equipment.weigth", Sortable: true, Visible: true},
	{Text: "Количество мест", Value: "equipment.seats_number", Sortable: true, Visible: true},
	{Text: "Габариты", Value: "equipment.dimensions", Sortable: true, Visible: true},
	{Text: "Привод", Value: "equipment.drive_unit", Sortable: true, Visible: true},
	{Text: "Подвижность", Value: "equipment.move_ability", Sortable: true, Visible: true},
	{Text: "Страна производства", Value: "equipment.brand_country", Sortable: true, Visible: true},
	{Text: "Поставщик", Value: "leasing_contract.supplier.name", Sortable: true, Visible: true},
	{Text: "Стоимость по ДКП", Value: "leasing_contract.purchase_price", Sortable: true, Visible: true},
	{Text: "ИНН поставщика", Value: "leasing_contract.supplier.inn", Sortable: true, Visible: true},
	{Text: "Лизингополучатель", Value: "leasing_contract.lessee.name", Sortable: true, Visible: true},
	{Text: "ИНН лизингополучателя", Value: "leasing_contract.lessee.inn", Sortable: true, Visible: true},
	{Text: "Лизингодатель", Value: "leasing_contract.lessor.name", Sortable: true, Visible: true},
	{Text: "ИНН лизингодателя", Value: "leasing_contract.lessor.inn", Sortable: true, Visible: true},
	{Text: "Дата расторжения", Value: "leasing_contract.contract_termination_date", Sortable: true, Visible: true},
	{Text: "Дата изъятия", Value: "leasing_contract.seizure_date", Sortable: true, Visible: true},
	{Text: "Дата выкупа", Value: "leasing_contract.lease_repurchase_date", Sortable: true, Visible: true},
	{Text: "Количество владельцев", Value: "owners_count", Sortable: true, Visible: true},
	{Text: "Пробег", Value: "mileage", Sortable: true, Visible: true},
	{Text: "Состояние", Value: "condition_status", Sortable: true, Visible: true},
	{Text: "Наработка", Value: "engine_hours", Sortable: true, Visible: true},
	{Text: "Количество ключей", Value: "keys_count", Sortable: true, Visible: true},
	{Text: "Ограничения", Value: "restrictions", Sortable: false, Visible: true},
	{Text: "Цвет", Value: "color", Sortable: true, Visible: true},
	{Text: "Дата реализации", Value: "realization_date", Sortable: true, Visible: true},
	{Text: "Цена реализации", Value: "realization_cost", Sortable: true, Visible: true},
	{Text: "Ответственный", Value: "responsible.employee_display", Sortable: true, Visible: true},
	{Text: "Альфа-лизинг", Value: "classifidesAds.alfa", Sortable: true, Visible: true},
	{Text: "Авито", Value: "classifidesAds.avito", Sortable: true, Visible: true},
	{Text: "Auto.ru", Value: "classifidesAds.autoru", Sortable: true, Visible: true},
	{Text: "ТГ", Value: "classifidesAds.tg", Sortable: true, Visible: true},
	{Text: "Дром", Value: "classifidesAds.drom", Sortable: true, Visible: true},
}

// DefaultHeaders returns a fresh copy of the listing columns.
func DefaultHeaders() []models.Header {
	return append([]models.Header{}, defaultHeaders...)
}

// Columns holds the listing columns and their visibility.
type Columns struct {
	store  *storage.Store
	logger logger.Logger

	mu      sync.Mutex
	headers []models.Header
}

func NewColumns(store *storage.Store, log logger.Logger) *Columns {
	return &Columns{
		store:   store,
		logger:  logger.ForComponent(log, "table.columns"),
		headers: DefaultHeaders(),
	}
}

// Load applies the saved visibility. Unknown columns are ignored.
func (c *Columns) Load(ctx context.Context) {
	var saved []models.Header
	if !c.store.Load(ctx, HeadersKey, &saved) {
		return
	}
	c.mu.Lock()
	c.apply(saved)
	c.mu.Unlock()
}

func (c *Columns) apply(updates []models.Header) {
	for _, u := range updates {
		for i := range c.headers {
			if c.headers[i].Value == u.Value {
				c.headers[i].Visible = u.Visible
			}
		}
	}
}

func (c *Columns) Headers() []models.Header {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Header{}, c.headers...)
}

// Visible returns the shown columns in display order.
func (c *Columns) Visible() []models.Header {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Header, 0, len(c.headers))
	for _, h := range c.headers {
		if h.Visible {
			out = append(out, h)
		}
	}
	return out
}

// SetVisibility shows or hides one column. It reports false for an
// unknown column.
func (c *Columns) SetVisibility(ctx context.Context, value string, visible bool) bool {
	c.mu.Lock()
	found := false
	for i := range c.headers {
		if c.headers[i].Value == value {
			c.headers[i].Visible = visible
			found = true
		}
	}
	headers := append([]models.Header{}, c.headers...)
	c.mu.Unlock()

	if found {
		c.save(ctx, headers)
	}
	return found
}

// Update applies the visibility of every given column.
func (c *Columns) Update(ctx context.Context, updates []models.Header) {
	c.mu.Lock()
	c.apply(updates)
	headers := append([]models.Header{}, c.headers...)
	c.mu.Unlock()

	c.save(ctx, headers)
}

// Reset restores the default columns and forgets the saved settings.
func (c *Columns) Reset(ctx context.Context) {
	c.mu.Lock()
	c.headers = DefaultHeaders()
	c.mu.Unlock()

	if err := c.store.Clear(ctx, HeadersKey); err != nil {
		c.logger.Warn("failed to clear column settings", map[string]interface{}{"error": err.Error()})
	}
}

func (c *Columns) save(ctx context.Context, headers []models.Header) {
	if err := c.store.Save(ctx, HeadersKey, headers); err != nil {
		c.logger.Warn("failed to save column settings", map[string]interface{}{"error": err.Error()})
	}
}
