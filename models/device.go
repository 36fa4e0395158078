// models/device.go
package models

import (
	"strings"
	"time"

	"Gin_postgres_redis_inventory_tool/apperr"

	"gorm.io/datatypes"
)

const DeviceTable = "node_devices"

type AccountingType string

const (
	AccountingExpensed    AccountingType = "konsumtiv" // expensed on purchase
	AccountingCapitalized AccountingType = "investiv"  // capitalized and depreciated
)

type ContractType string

const (
	ContractPurchase   ContractType = "purchase"
	ContractPayPerPage ContractType = "pay-per-page"
	ContractLease      ContractType = "lease"
)

type Device struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	InventoryNumber string `gorm:"size:64;uniqueIndex;not null" json:"inventoryNumber"`
	Name            string `gorm:"size:200;not null" json:"name"`

	CategoryID           uint                `gorm:"index;not null" json:"categoryId"`
	Category             *Category           `json:"category,omitempty"`
	StatusID             uint                `gorm:"index;not null" json:"statusId"`
	Status               *Status             `json:"status,omitempty"`
	LocationID           *uint               `gorm:"index" json:"locationId,omitempty"`
	Location             *Location           `json:"location,omitempty"`
	NetworkEnvironmentID *uint               `json:"networkEnvironmentId,omitempty"`
	NetworkEnvironment   *NetworkEnvironment `json:"networkEnvironment,omitempty"`
	IPAddressID          *uint               `json:"ipAddressId,omitempty"`
	IPAddress            *IPAddress          `json:"ipAddress,omitempty"`

	Manufacturer string  `gorm:"size:120;not null;default:''" json:"manufacturer"`
	Model        string  `gorm:"size:120;not null;default:''" json:"model"`
	SerialNumber *string `gorm:"size:120;index" json:"serialNumber,omitempty"`

	Purchase             *time.Time          `json:"purchase,omitempty"`
	Price                *float64            `json:"price,omitempty"`
	Supplier             *string             `gorm:"size:200" json:"supplier,omitempty"`
	DepreciationPeriodID *uint               `json:"depreciationPeriodId,omitempty"`
	DepreciationPeriod   *DepreciationPeriod `json:"depreciationPeriod,omitempty"`
	AccountingType       AccountingType      `gorm:"size:12;not null;default:'konsumtiv'" json:"accountingType"`

	AssignedTo          *string                     `gorm:"size:64;index" json:"assignedTo,omitempty"` // AD GUID
	MacAddresses        datatypes.JSONSlice[string] `json:"macAddresses"`
	PatchPanelLabel     *string                     `gorm:"size:60" json:"patchPanelLabel,omitempty"`
	LeaseDurationMonths *int                        `json:"leaseDurationMonths,omitempty"`
	ContractType        *ContractType               `gorm:"size:16" json:"contractType,omitempty"`
	Notes               *string                     `json:"notes,omitempty"`

	CreatedBy  uint      `gorm:"not null" json:"createdBy"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
	LastEditBy uint      `gorm:"not null" json:"lastEditBy"`
	LastEditAt time.Time `gorm:"index" json:"lastEditAt"`
}

func (Device) TableName() string { return DeviceTable }

// DepreciationEnd is purchase plus the attached period, or nil when either
// is missing. It is recomputed on every read.
func (d *Device) DepreciationEnd() *time.Time {
	if d.Purchase == nil || d.DepreciationPeriod == nil {
		return nil
	}
	end, err := d.DepreciationPeriod.EndFrom(*d.Purchase)
	if err != nil {
		return nil
	}
	return &end
}

// DeviceRefs lists the lookup rows a write points at.
type DeviceRefs struct {
	CategoryID           *uint
	StatusID             *uint
	LocationID           *uint
	NetworkEnvironmentID *uint
	DepreciationPeriodID *uint
	IPAddressID          *uint
}

// DeviceInput is the body of a create request. The audit fields are not
// part of it, so a client cannot set them.
type DeviceInput struct {
	InventoryNumber      *string         `json:"inventoryNumber" binding:"required,notblank,max=64"`
	Name                 *string         `json:"name" binding:"required,notblank,max=200"`
	CategoryID           *uint           `json:"categoryId" binding:"required"`
	StatusID             *uint           `json:"statusId" binding:"required"`
	LocationID           *uint           `json:"locationId"`
	NetworkEnvironmentID *uint           `json:"networkEnvironmentId"`
	IPAddressID          *uint           `json:"ipAddressId"`
	Manufacturer         string          `json:"manufacturer" binding:"max=120"`
	Model                string          `json:"model" binding:"max=120"`
	SerialNumber         *string         `json:"serialNumber" binding:"omitempty,max=120"`
	Purchase             *Date           `json:"purchase"`
	Price                *float64        `json:"price" binding:"omitempty,gte=0"`
	Supplier             *string         `json:"supplier" binding:"omitempty,max=200"`
	DepreciationPeriodID *uint           `json:"depreciationPeriodId"`
	AccountingType       *AccountingType `json:"accountingType" binding:"omitempty,oneof=konsumtiv investiv"`
	AssignedTo           *string         `json:"assignedTo" binding:"omitempty,uuid_rfc4122"`
	MacAddresses         []string        `json:"macAddresses" binding:"omitempty,dive,mac"`
	PatchPanelLabel      *string         `json:"patchPanelLabel" binding:"omitempty,max=60"`
	LeaseDurationMonths  *int            `json:"leaseDurationMonths" binding:"omitempty,min=1"`
	ContractType         *ContractType   `json:"contractType" binding:"omitempty,oneof=purchase pay-per-page lease"`
	Notes                *string         `json:"notes"`
}

func (in *DeviceInput) Validate() error { return Check(in) }

func (in *DeviceInput) Refs() DeviceRefs {
	return DeviceRefs{
		CategoryID:           in.CategoryID,
		StatusID:             in.StatusID,
		LocationID:           in.LocationID,
		NetworkEnvironmentID: in.NetworkEnvironmentID,
		DepreciationPeriodID: in.DepreciationPeriodID,
		IPAddressID:          in.IPAddressID,
	}
}

// ToDevice builds the row; call Validate first.
func (in *DeviceInput) ToDevice(actorID uint, now time.Time) *Device {
	acct := AccountingExpensed
	if in.AccountingType != nil {
		acct = *in.AccountingType
	}
	macs := datatypes.JSONSlice[string]{}
	if in.MacAddresses != nil {
		macs = append(macs, in.MacAddresses...)
	}
	return &Device{
		InventoryNumber:      strings.TrimSpace(*in.InventoryNumber),
		Name:                 strings.TrimSpace(*in.Name),
		CategoryID:           *in.CategoryID,
		StatusID:             *in.StatusID,
		LocationID:           in.LocationID,
		NetworkEnvironmentID: in.NetworkEnvironmentID,
		IPAddressID:          in.IPAddressID,
		Manufacturer:         in.Manufacturer,
		Model:                in.Model,
		SerialNumber:         in.SerialNumber,
		Purchase:             in.Purchase.TimePtr(),
		Price:                in.Price,
		Supplier:             in.Supplier,
		DepreciationPeriodID: in.DepreciationPeriodID,
		AccountingType:       acct,
		AssignedTo:           in.AssignedTo,
		MacAddresses:         macs,
		PatchPanelLabel:      in.PatchPanelLabel,
		LeaseDurationMonths:  in.LeaseDurationMonths,
		ContractType:         in.ContractType,
		Notes:                in.Notes,
		CreatedBy:            actorID,
		CreatedAt:            now,
		LastEditBy:           actorID,
		LastEditAt:           now,
	}
}

// DevicePatch is the body of a partial update. Keys that are absent stay
// untouched, null clears, unknown keys are rejected by DecodeStrict.
type DevicePatch struct {
	InventoryNumber      Optional[string]         `json:"inventoryNumber"`
	Name                 Optional[string]         `json:"name"`
	CategoryID           Optional[uint]           `json:"categoryId"`
	StatusID             Optional[uint]           `json:"statusId"`
	LocationID           Optional[uint]           `json:"locationId"`
	NetworkEnvironmentID Optional[uint]           `json:"networkEnvironmentId"`
	IPAddressID          Optional[uint]           `json:"ipAddressId"`
	Manufacturer         Optional[string]         `json:"manufacturer"`
	Model                Optional[string]         `json:"model"`
	SerialNumber         Optional[string]         `json:"serialNumber"`
	Purchase             Optional[Date]           `json:"purchase"`
	Price                Optional[float64]        `json:"price"`
	Supplier             Optional[string]         `json:"supplier"`
	DepreciationPeriodID Optional[uint]           `json:"depreciationPeriodId"`
	AccountingType       Optional[AccountingType] `json:"accountingType"`
	AssignedTo           Optional[string]         `json:"assignedTo"`
	MacAddresses         Optional[[]string]       `json:"macAddresses"`
	PatchPanelLabel      Optional[string]         `json:"patchPanelLabel"`
	LeaseDurationMonths  Optional[int]            `json:"leaseDurationMonths"`
	ContractType         Optional[ContractType]   `json:"contractType"`
	Notes                Optional[string]         `json:"notes"`
}

func (p *DevicePatch) Refs() DeviceRefs {
	return DeviceRefs{
		CategoryID:           setPtr(p.CategoryID),
		StatusID:             setPtr(p.StatusID),
		LocationID:           setPtr(p.LocationID),
		NetworkEnvironmentID: setPtr(p.NetworkEnvironmentID),
		DepreciationPeriodID: setPtr(p.DepreciationPeriodID),
		IPAddressID:          setPtr(p.IPAddressID),
	}
}

func setPtr[T any](o Optional[T]) *T {
	if !o.Set {
		return nil
	}
	return o.Ptr()
}

// Columns validates every present field and returns the column updates,
// audit stamps excluded.
func (p *DevicePatch) Columns() (map[string]any, error) {
	cols := map[string]any{}

	required := func(name string, set, null bool) error {
		if set && null {
			return apperr.Invalidf("%s cannot be cleared", name)
		}
		return nil
	}
	for _, r := range []struct {
		name      string
		set, null bool
	}{
		{"inventoryNumber", p.InventoryNumber.Set, p.InventoryNumber.Null},
		{"name", p.Name.Set, p.Name.Null},
		{"categoryId", p.CategoryID.Set, p.CategoryID.Null},
		{"statusId", p.StatusID.Set, p.StatusID.Null},
		{"accountingType", p.AccountingType.Set, p.AccountingType.Null},
	} {
		if err := required(r.name, r.set, r.null); err != nil {
			return nil, err
		}
	}

	if p.InventoryNumber.Set {
		v := strings.TrimSpace(p.InventoryNumber.Value)
		if err := checkVar("inventoryNumber", v, "notblank,max=64"); err != nil {
			return nil, err
		}
		cols["inventory_number"] = v
	}
	if p.Name.Set {
		v := strings.TrimSpace(p.Name.Value)
		if err := checkVar("name", v, "notblank,max=200"); err != nil {
			return nil, err
		}
		cols["name"] = v
	}
	if p.CategoryID.Set {
		cols["category_id"] = p.CategoryID.Value
	}
	if p.StatusID.Set {
		cols["status_id"] = p.StatusID.Value
	}
	if p.LocationID.Set {
		cols["location_id"] = p.LocationID.Ptr()
	}
	if p.NetworkEnvironmentID.Set {
		cols["network_environment_id"] = p.NetworkEnvironmentID.Ptr()
	}
	if p.IPAddressID.Set {
		cols["ip_address_id"] = p.IPAddressID.Ptr()
	}
	if p.Manufacturer.Set {
		cols["manufacturer"] = p.Manufacturer.Value
	}
	if p.Model.Set {
		cols["model"] = p.Model.Value
	}
	if p.SerialNumber.Set {
		cols["serial_number"] = p.SerialNumber.Ptr()
	}
	if p.Purchase.Set {
		if p.Purchase.Null {
			cols["purchase"] = nil
		} else {
			cols["purchase"] = p.Purchase.Value.Time
		}
	}
	if p.Price.Set {
		if !p.Price.Null {
			if err := checkVar("price", p.Price.Value, "gte=0"); err != nil {
				return nil, err
			}
		}
		cols["price"] = p.Price.Ptr()
	}
	if p.Supplier.Set {
		cols["supplier"] = p.Supplier.Ptr()
	}
	if p.DepreciationPeriodID.Set {
		cols["depreciation_period_id"] = p.DepreciationPeriodID.Ptr()
	}
	if p.AccountingType.Set {
		if err := checkVar("accountingType", p.AccountingType.Value, "oneof=konsumtiv investiv"); err != nil {
			return nil, err
		}
		cols["accounting_type"] = p.AccountingType.Value
	}
	if p.AssignedTo.Set {
		if !p.AssignedTo.Null {
			if err := checkVar("assignedTo", p.AssignedTo.Value, "uuid_rfc4122"); err != nil {
				return nil, err
			}
		}
		cols["assigned_to"] = p.AssignedTo.Ptr()
	}
	if p.MacAddresses.Set {
		macs := datatypes.JSONSlice[string]{}
		if !p.MacAddresses.Null {
			if err := checkVar("macAddresses", p.MacAddresses.Value, "dive,mac"); err != nil {
				return nil, err
			}
			macs = append(macs, p.MacAddresses.Value...)
		}
		cols["mac_addresses"] = macs
	}
	if p.PatchPanelLabel.Set {
		cols["patch_panel_label"] = p.PatchPanelLabel.Ptr()
	}
	if p.LeaseDurationMonths.Set {
		if !p.LeaseDurationMonths.Null {
			if err := checkVar("leaseDurationMonths", p.LeaseDurationMonths.Value, "min=1"); err != nil {
				return nil, err
			}
		}
		cols["lease_duration_months"] = p.LeaseDurationMonths.Ptr()
	}
	if p.ContractType.Set {
		if !p.ContractType.Null {
			if err := checkVar("contractType", p.ContractType.Value, "oneof=purchase pay-per-page lease"); err != nil {
				return nil, err
			}
		}
		cols["contract_type"] = p.ContractType.Ptr()
	}
	if p.Notes.Set {
		cols["notes"] = p.Notes.Ptr()
	}
	return cols, nil
}

// DeviceDetail is a device with its joins and derived dates.
type DeviceDetail struct {
	Device
	ElectronicTest  *ElectronicTest `json:"electronicTest,omitempty"`
	DepreciationEnd *time.Time      `json:"depreciationEnd,omitempty"`
	NextTestDue     *time.Time      `json:"nextTestDue,omitempty"`
	Availability    string          `json:"availability"`
}
