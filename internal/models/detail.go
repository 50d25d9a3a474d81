// internal/models/detail.go
package models

// Ref is a nested reference object of a property card.
type Ref struct {
	UID  ID     `json:"uid"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

type Equipment struct {
	TypeTS   *Ref `json:"type_ts"`
	Subtype1 *Ref `json:"subtype1"`
	Subtype2 *Ref `json:"subtype2"`
	Brand    *Ref `json:"brand"`
	Model    *Ref `json:"model"`
}

// PropertyDetail is a property card. Fields holds the full decoded
// document for columns without a typed field.
type PropertyDetail struct {
	UID       string     `json:"uid"`
	LotNumber string     `json:"lot_number"`
	VIN       string     `json:"vin"`
	Status    *Ref       `json:"status"`
	Equipment *Equipment `json:"equipment"`
	Fields    Item       `json:"-"`
}

// PropertyTypes is the type triple of the last opened card; option
// lookups are scoped by it.
type PropertyTypes struct {
	Type     *string `json:"type"`
	Subtype1 *string `json:"subtype1"`
	Subtype2 *string `json:"subtype2"`
}

// Types extracts the type triple of the card.
func (d PropertyDetail) Types() (PropertyTypes, bool) {
	if d.Equipment == nil {
		return PropertyTypes{}, false
	}
	uid := func(r *Ref) *string {
		if r == nil || r.UID == "" {
			return nil
		}
		s := string(r.UID)
		return &s
	}
	return PropertyTypes{
		Type:     uid(d.Equipment.TypeTS),
		Subtype1: uid(d.Equipment.Subtype1),
		Subtype2: uid(d.Equipment.Subtype2),
	}, true
}

// NameValue is a {name, value} pair used by valuation reasons and
// option values.
type NameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type ValuationHistoryItem struct {
	Comment       string    `json:"comment"`
	ValuationDate string    `json:"valuation_date"`
	Valuation     float64   `json:"valuation"`
	Reason        NameValue `json:"reason"`
	Author        struct {
		Name string `json:"name"`
		Code string `json:"code"`
	} `json:"author"`
}

type ValuationHistory struct {
	Count int                    `json:"count"`
	Items []ValuationHistoryItem `json:"items"`
}

type ValuationRequest struct {
	Valuation float64   `json:"valuation"`
	Reason    NameValue `json:"reason"`
	Comment   string    `json:"comment,omitempty"`
}

// ClassifiedSite is a classifieds site known to the backend.
type ClassifiedSite struct {
	Value    string `json:"value"`
	Code     string `json:"code"`
	Editable bool   `json:"editable"`
}

type CodeValue struct {
	Code  string `json:"code,omitempty"`
	Value string `json:"value,omitempty"`
}

// ClassifiedAd is a property's listing on one classifieds site.
type ClassifiedAd struct {
	UID        string    `json:"uid"`
	Classified CodeValue `json:"classified"`
	Link       string    `json:"link"`
	Status     CodeValue `json:"status"`
	Editable   bool      `json:"editable"`
}

type ClassifiedLink struct {
	Code string `json:"code"`
	Link string `json:"link"`
}

// RealizationUpdate records the sale of a property.
type RealizationUpdate struct {
	RealizationCost *float64 `json:"realization_cost"`
	RealizationDate *string  `json:"realization_date"`
}

type LeasingParty struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
	INN  string `json:"inn"`
}

type LeasingAgreement struct {
	UID             string       `json:"uid"`
	Number          string       `json:"number"`
	Lessee          LeasingParty `json:"lessee"`
	Lessor          LeasingParty `json:"lessor"`
	Supplier        LeasingParty `json:"supplier"`
	PurchasePrice   float64      `json:"purchase_price"`
	TerminationDate *string      `json:"termination_date"`
	SeizureDate     *string      `json:"seizure_date"`
}

// PropertyOption is an editable characteristic of a property type.
type PropertyOption struct {
	OptionName     string      `json:"option_name"`
	OptionSysname  string      `json:"option_sysname"`
	OptionCategory string      `json:"option_category"`
	OptionValues   []NameValue `json:"option_values"`
	IsRequired     bool        `json:"is_required"`
	InputType      string      `json:"input_type"`
	Value          interface{} `json:"value,omitempty"`
}

type Color struct {
	Code string `json:"code"`
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// ResponsibleAssignment assigns a user to a property.
type ResponsibleAssignment struct {
	SeizedPropertyUID string `json:"seizedPropertyUid"`
	UserUID           string `json:"userUid"`
}
