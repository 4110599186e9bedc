package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// sqlProgram is a transform expressed as one INSERT..SELECT over the staging
// table. {target} and {staging} are spliced; the month arrives as the single
// bind parameter.
type sqlProgram struct {
	name string
	stmt string
}

func (p sqlProgram) Name() string { return p.name }

func (p sqlProgram) Apply(ctx context.Context, tx *sql.Tx, target, staging, month string) error {
	query := strings.NewReplacer("{target}", target, "{staging}", staging).Replace(p.stmt)
	if _, err := tx.ExecContext(ctx, query, month); err != nil {
		return fmt.Errorf("apply %s: %w", p.name, err)
	}
	return nil
}

// The id is the record's unix second; ROW_NUMBER bumps same-second rows with
// an equal amount so the composite primary key holds within one load.
const idExpr = `CAST(strftime('%s', "交易时间") AS INTEGER)
		+ ROW_NUMBER() OVER (PARTITION BY "交易时间", {amount} ORDER BY rowid) - 1`

func selectInto(amountCol, amountExpr, source, note, origin, where string) string {
	id := strings.ReplaceAll(idExpr, "{amount}", amountCol)
	return `INSERT INTO {target}
		(id, pay_time, pay_monthyear, pay_source, pay_note, pay_money, pay_tag, app_source)
	SELECT ` + id + `,
		"交易时间", ?, ` + source + `, ` + note + `, ` + amountExpr + `, NULL, '` + origin + `'
	FROM {staging}
	WHERE ` + where
}

// Built-in programs over the sanitized export headers. WeChat exports carry
// 收支/交易时间/交易对方/商品/金额(元); Alipay adds 商品说明 and 交易状态;
// bank statements are pre-normalized to canonical column names. Expenses keep
// their positive amounts, income and refunds are stored negated.
var builtinPrograms = []TransformProgram{
	sqlProgram{
		name: "wx_expense",
		stmt: selectInto(`"金额元"`, `"金额元"`, `"交易对方"`, `"商品"`,
			"wx_pay", `"收支" = '支出'`),
	},
	sqlProgram{
		name: "wx_income",
		stmt: selectInto(`"金额元"`, `-"金额元"`, `"交易对方"`, `"商品"`,
			"wx_income", `"收支" = '收入'`),
	},
	sqlProgram{
		name: "zfb_expense",
		stmt: selectInto(`"金额"`, `"金额"`, `"交易对方"`, `"商品说明"`,
			"zfb_pay", `"收支" = '支出'`),
	},
	sqlProgram{
		name: "zfb_refund",
		stmt: selectInto(`"金额"`, `-"金额"`, `"交易对方"`, `"商品说明"`,
			"zfb_refund", `"交易状态" LIKE '%退款成功%'`),
	},
	sqlProgram{
		name: "bank_import",
		stmt: `INSERT INTO {target}
			(id, pay_time, pay_monthyear, pay_source, pay_note, pay_money, pay_tag, app_source)
		SELECT CAST(strftime('%s', "pay_time") AS INTEGER)
			+ ROW_NUMBER() OVER (PARTITION BY "pay_time", "pay_money" ORDER BY rowid) - 1,
			"pay_time", ?, "pay_source", "pay_note", "pay_money", NULL, 'bank'
		FROM {staging}`,
	},
}

// DefaultRegistry holds every built-in transform program.
func DefaultRegistry() *Registry {
	return NewRegistry(builtinPrograms...)
}
