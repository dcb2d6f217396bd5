package integration

// ErpObject names an ERP object type addressed through the gateway's read
// and write contract.
type ErpObject = string

// Object types consumed by the synchronizers.
const (
	ObjectPartner        ErpObject = "res.partner"
	ObjectCategory       ErpObject = "product.category"
	ObjectAttribute      ErpObject = "product.attribute"
	ObjectAttributeValue ErpObject = "product.attribute.value"
	ObjectProduct        ErpObject = "product.template"
	ObjectVariant        ErpObject = "product.product"
	ObjectDeliveryOption ErpObject = "delivery.carrier"
	ObjectWarehouse      ErpObject = "stock.warehouse"
	ObjectOrder          ErpObject = "sale.order"
	ObjectOrderLine      ErpObject = "sale.order.line"
	ObjectAttachment     ErpObject = "ir.attachment"
)
