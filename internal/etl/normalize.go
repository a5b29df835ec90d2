package etl

import (
	"regexp"
	"strings"

	"github.com/luismelo4/ConsumerApp/internal/metrics"
	"github.com/luismelo4/ConsumerApp/pkg/logger"
	"github.com/luismelo4/ConsumerApp/pkg/models"
	"github.com/luismelo4/ConsumerApp/pkg/utils"
)

// ISO 3166-1 alpha-2 country codes, used to strip stray code tokens
// from country names in the feed.
var countryCodes = strings.Fields(`
AD AE AF AG AI AL AM AO AQ AR AS AT AU AW AX AZ
BA BB BD BE BF BG BH BI BJ BL BM BN BO BQ BR BS BT BV BW BY BZ
CA CC CD CF CG CH CI CK CL CM CN CO CR CU CV CW CX CY CZ
DE DJ DK DM DO DZ
EC EE EG EH ER ES ET
FI FJ FK FM FO FR
GA GB GD GE GF GG GH GI GL GM GN GP GQ GR GS GT GU GW GY
HK HM HN HR HT HU
ID IE IL IM IN IO IQ IR IS IT
JE JM JO JP
KE KG KH KI KM KN KP KR KW KY KZ
LA LB LC LI LK LR LS LT LU LV LY
MA MC MD ME MF MG MH MK ML MM MN MO MP MQ MR MS MT MU MV MW MX MY MZ
NA NC NE NF NG NI NL NO NP NR NU NZ
OM
PA PE PF PG PH PK PL PM PN PR PS PT PW PY
QA
RE RO RS RU RW
SA SB SC SD SE SG SH SI SJ SK SL SM SN SO SR SS ST SV SX SY SZ
TC TD TF TG TH TJ TK TL TM TN TO TR TT TV TW TZ
UA UG UM US UY UZ
VA VC VE VG VI VN VU
WF WS
YE YT
ZA ZM ZW`)

var countryCodeRe = regexp.MustCompile(`(?i)\b(` + strings.Join(countryCodes, "|") + `)\b`)

// ValidRecord reports whether a raw record may reach storage: its
// availability flag must be true and its price strictly positive.
func ValidRecord(rec models.RawRecord) bool {
	return rec["availability"] == true && utils.ToFloat(rec["price"]) > 0
}

// Normalize maps a valid raw record onto the product schema.
func Normalize(rec models.RawRecord) models.Product {
	shop := rec["site"]
	if shop == nil {
		shop = rec["marketplaceseller"]
	}
	return models.Product{
		Country:           NormalizeCountry(utils.ToString(rec["country"])),
		Brand:             utils.ToString(rec["brand"]),
		ProductID:         utils.ToString(rec["sku"]),
		ProductName:       utils.ToString(rec["model"]),
		ShopName:          strings.TrimSpace(utils.ToString(shop)),
		ProductCategoryID: utils.ToInt(rec["categoryId"]),
		Price:             utils.ToFloat(rec["price"]),
		URL:               utils.ToString(rec["url"]),
	}
}

// NormalizeCountry strips any standalone ISO-3166 alpha-2 code token
// from the country name, case-insensitively and on word boundaries,
// except when the code is the very first token ("IN" the country vs
// "India IN" the suffix). "Belgium BE" -> "Belgium".
func NormalizeCountry(country string) string {
	matches := countryCodeRe.FindAllStringIndex(country, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(country)
	}
	var b strings.Builder
	prev := 0
	for _, m := range matches {
		if m[0] == 0 {
			continue
		}
		b.WriteString(country[prev:m[0]])
		prev = m[1]
	}
	b.WriteString(country[prev:])
	return strings.TrimSpace(b.String())
}

// NormalizeBatch validates, normalizes, and deduplicates one delivered
// batch. Dedup is batch-local and first-seen-wins; the unique
// constraint at the storage layer is the only cross-batch guard.
func NormalizeBatch(batch []models.RawRecord, log *logger.Logger) []models.Product {
	seen := make(map[models.Key]struct{}, len(batch))
	out := make([]models.Product, 0, len(batch))
	for _, rec := range batch {
		if !ValidRecord(rec) {
			log.Debug("skipping invalid record", "sku", rec["sku"])
			metrics.RecordsSkipped.Inc()
			continue
		}
		p := Normalize(rec)
		if _, dup := seen[p.Key()]; dup {
			log.Debug("skipping duplicate record in batch", "productID", p.ProductID, "shopName", p.ShopName)
			metrics.RecordsSkipped.Inc()
			continue
		}
		seen[p.Key()] = struct{}{}
		out = append(out, p)
	}
	return out
}
