package domain

// PremiumPackage is a fixed-duration subscription tier. Price is in VND,
// derived solely from the package name at order creation and never
// recomputed afterwards.
type PremiumPackage struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Days  int    `json:"days"`
}

// premiumPackages is the static package catalog. There is no external
// pricing source.
var premiumPackages = map[string]PremiumPackage{
	"1 tháng": {Name: "1 tháng", Price: 600000, Days: 30},
	"3 tháng": {Name: "3 tháng", Price: 1500000, Days: 90},
	"6 tháng": {Name: "6 tháng", Price: 2700000, Days: 180},
}

// PackageByName resolves a package name to its catalog entry
func PackageByName(name string) (PremiumPackage, error) {
	pkg, ok := premiumPackages[name]
	if !ok {
		return PremiumPackage{}, ErrInvalidPackage
	}
	return pkg, nil
}

// Packages returns the full catalog for display purposes
func Packages() []PremiumPackage {
	out := make([]PremiumPackage, 0, len(premiumPackages))
	for _, pkg := range premiumPackages {
		out = append(out, pkg)
	}
	return out
}
