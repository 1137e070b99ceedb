package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rushteam/shoprec/core"
)

var validate = validator.New()

// Validate 校验目录：字段约束（id 必填、价格 ≥0、评分 0–5、评价数 ≥0）以及 id 唯一。
func Validate(catalog core.Catalog) error {
	seen := make(map[int64]int, len(catalog))
	var problems []string
	for i := range catalog {
		p := &catalog[i]
		if err := validate.Struct(p); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				for _, fe := range verrs {
					problems = append(problems, fmt.Sprintf("product[%d].%s failed %s", i, fe.Field(), fe.Tag()))
				}
			} else {
				problems = append(problems, fmt.Sprintf("product[%d]: %v", i, err))
			}
		}
		if j, ok := seen[p.ID]; ok {
			problems = append(problems, fmt.Sprintf("product[%d] duplicates id %d of product[%d]", i, p.ID, j))
			continue
		}
		seen[p.ID] = i
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(problems, "; "))
	}
	return nil
}
