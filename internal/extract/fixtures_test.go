package extract

import (
	"github.com/leapstack-labs/ldmgen/internal/document"
)

type rec = document.Record

func ref(id string) rec { return rec{"@Ref": id} }

func refs(ids ...string) any {
	if len(ids) == 1 {
		return ref(ids[0])
	}
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = ref(id)
	}
	return out
}

func many(items ...rec) any {
	if len(items) == 1 {
		return items[0]
	}
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

func domainRec(id, name, dataType, length string) rec {
	r := rec{
		"@Id":            id,
		"@a:ObjectID":    "OBJ-" + id,
		"a:Name":         name,
		"a:Code":         name,
		"a:DataType":     dataType,
		"a:CreationDate": "1700000000",
	}
	if length != "" {
		r["a:Length"] = length
	}
	return r
}

func attrRec(id, name, domainID string) rec {
	r := rec{
		"@Id":                id,
		"@a:ObjectID":        "OBJ-" + id,
		"a:Name":             name,
		"a:Code":             name,
		"a:ModificationDate": "1700000100",
	}
	if domainID != "" {
		r["c:Domain"] = rec{"o:Domain": ref(domainID)}
	}
	return r
}

func identifierRec(id, name string, attrIDs ...string) rec {
	r := rec{"@Id": id, "a:Name": name, "a:Code": name}
	if len(attrIDs) > 0 {
		r["c:Identifier.Attributes"] = rec{"o:EntityAttribute": refs(attrIDs...)}
	}
	return r
}

func entityRec(id, name string, attrs []rec, identifiers []rec, primaryID string) rec {
	r := rec{
		"@Id":            id,
		"@a:ObjectID":    "OBJ-" + id,
		"a:Name":         name,
		"a:Code":         name,
		"a:CreationDate": "1700000000",
	}
	if len(attrs) > 0 {
		r["c:Attributes"] = rec{"o:EntityAttribute": many(attrs...)}
	}
	if len(identifiers) > 0 {
		r["c:Identifiers"] = rec{"o:Identifier": many(identifiers...)}
	}
	if primaryID != "" {
		r["c:PrimaryIdentifier"] = rec{"o:Identifier": ref(primaryID)}
	}
	return r
}

func relationshipRec(id, name, entity1, entity2 string, joins [][2]string, parentIdentifiers ...string) rec {
	r := rec{
		"@Id":       id,
		"a:Name":    name,
		"a:Code":    name,
		"c:Object1": rec{"o:Entity": ref(entity1)},
		"c:Object2": rec{"o:Entity": ref(entity2)},
	}
	if len(joins) > 0 {
		js := make([]rec, len(joins))
		for i, j := range joins {
			js[i] = rec{
				"@Id":       id + "-j" + string(rune('0'+i)),
				"c:Object1": rec{"o:EntityAttribute": ref(j[0])},
				"c:Object2": rec{"o:EntityAttribute": ref(j[1])},
			}
		}
		r["c:Joins"] = rec{"o:RelationshipJoin": many(js...)}
	}
	if len(parentIdentifiers) > 0 {
		r["c:ParentIdentifier"] = rec{"o:Identifier": refs(parentIdentifiers...)}
	}
	return r
}

func shortcutEntityRec(id, name string, attrs ...rec) rec {
	r := rec{
		"@Id":        id,
		"a:Name":     name,
		"a:Code":     name,
		"a:TargetID": "TGT-" + id,
	}
	if len(attrs) > 0 {
		r["c:SubShortcuts"] = rec{"o:Shortcut": many(attrs...)}
	}
	return r
}

func subShortcutRec(id, name string) rec {
	return rec{"@Id": id, "a:Name": name, "a:Code": name, "a:TargetID": "TGT-" + id}
}

func targetModelRec(id, targetModelID string, shortcutIDs ...string) rec {
	return rec{
		"@Id":                id,
		"a:Name":             "Target " + id,
		"a:TargetModelID":    targetModelID,
		"c:SessionShortcuts": rec{"o:Shortcut": refs(shortcutIDs...)},
	}
}

func modelShortcutRec(id, name, targetID string) rec {
	return rec{"@Id": id, "a:Name": name, "a:Code": name, "a:TargetID": targetID}
}

func compositionRec(id, name, joinType, entityID string, conditions ...rec) rec {
	r := rec{
		"@Id":                      id,
		"a:Name":                   name,
		"a:ExtendedAttributesText": "{00000000-0000-0000-0000-000000000001},MDDE,40={00000000-0000-0000-0000-000000000002},mdde_JoinType,1=" + joinType + "\n",
	}
	if entityID != "" {
		r["c:ExtendedCollections"] = rec{
			"o:ExtendedCollection": rec{
				"@Id":       id + "-c",
				"a:Name":    "mdde_SourceObject",
				"c:Content": rec{"o:Entity": ref(entityID)},
			},
		}
	}
	if len(conditions) > 0 {
		r["c:ExtendedCompositions"] = rec{
			"o:ExtendedComposition": rec{
				"@Id":                           id + "-n",
				"c:ExtendedComposition.Content": rec{"o:ExtendedSubObject": many(conditions...)},
			},
		}
	}
	return r
}

func componentRec(kind, objectKind, id string) rec {
	return rec{
		"@Id":       "cmp-" + kind + "-" + id,
		"a:Name":    kind,
		"c:Content": rec{objectKind: ref(id)},
	}
}

func conditionRec(id, name, text string, components ...rec) rec {
	r := rec{"@Id": id, "a:Name": name}
	if text != "" {
		r["a:ExtendedAttributesText"] = text
	}
	if len(components) > 0 {
		r["c:ExtendedCollections"] = rec{"o:ExtendedCollection": many(components...)}
	}
	return r
}

func featureMapRec(targetAttrID, alias, sourceAttrID string) rec {
	r := rec{
		"@Id": "fm-" + targetAttrID,
		"c:BaseStructuralFeatureMapping.Feature": rec{"o:EntityAttribute": ref(targetAttrID)},
	}
	if alias != "" {
		r["c:ExtendedCollections"] = rec{
			"o:ExtendedCollection": rec{"c:Content": rec{"o:ExtendedSubObject": ref(alias)}},
		}
	}
	if sourceAttrID != "" {
		r["c:SourceFeatures"] = rec{"o:EntityAttribute": ref(sourceAttrID)}
	}
	return r
}

func mappingRec(id, name, targetID string, sourceIDs []string, compositions []rec, features []rec) rec {
	r := rec{
		"@Id":          id,
		"@a:ObjectID":  "OBJ-" + id,
		"a:Name":       name,
		"c:DataSource": rec{"o:DefaultDataSource": ref("ds-1")},
		"c:Classifier": rec{"o:Entity": ref(targetID)},
	}
	if len(sourceIDs) > 0 {
		r["c:SourceClassifiers"] = rec{"o:Entity": refs(sourceIDs...)}
	}
	if len(compositions) > 0 {
		r["c:ExtendedCompositions"] = rec{
			"o:ExtendedComposition": rec{
				"@Id": id + "-comp",
				"a:ExtendedBaseCollection.CollectionName": "mdde_Mapping_Compositions",
				"c:ExtendedComposition.Content":           rec{"o:ExtendedSubObject": many(compositions...)},
			},
		}
	}
	if len(features) > 0 {
		r["c:StructuralFeatureMaps"] = rec{"o:DefaultStructuralFeatureMapping": many(features...)}
	}
	return r
}

// customerEntity builds the Customer entity of singleEntityModel.
func customerEntity() rec {
	return entityRec("o20", "Customer",
		[]rec{attrRec("o21", "id", "o10"), attrRec("o22", "name", "o11")},
		[]rec{identifierRec("o23", "PK Customer", "o21")},
		"o23",
	)
}

func orderEntity() rec {
	return entityRec("o30", "Order",
		[]rec{attrRec("o31", "id", "o10"), attrRec("o32", "customer_id", "o10")},
		[]rec{identifierRec("o33", "PK Order", "o31")},
		"o33",
	)
}

func customerOrdersEntity() rec {
	return entityRec("o90", "CustomerOrders",
		[]rec{attrRec("o91", "customer_name", "o11"), attrRec("o92", "order_id", "o10")},
		nil, "",
	)
}

func domainsSection() rec {
	return rec{"o:Domain": many(
		domainRec("o10", "Integer", "I", ""),
		domainRec("o11", "Text", "VA100", "100"),
	)}
}

// singleEntityModel is a document with the single entity Customer.
func singleEntityModel() rec {
	return rec{
		"@Id":            "o1",
		"a:Name":         "Warehouse",
		"a:Code":         "WH",
		"a:CreationDate": "1690000000",
		"c:Domains":      domainsSection(),
		"c:Entities":     rec{"o:Entity": customerEntity()},
	}
}

// fullDocument is a document exercising every section.
func fullDocument() rec {
	customerOrders := mappingRec("o80", "Mapping Customer Orders", "o90", []string{"o20", "o30"},
		[]rec{
			compositionRec("o81", "Customer", "FROM", "o20"),
			compositionRec("o82", "Order", "JOIN", "o30",
				conditionRec("o83", "customer join", "mdde_JoinOperator,1==",
					componentRec("mdde_ChildAttribute", "o:EntityAttribute", "o32"),
					componentRec("mdde_ParentSourceObject", "o:ExtendedSubObject", "o81"),
					componentRec("mdde_ParentAttribute", "o:EntityAttribute", "o21"),
				),
			),
		},
		[]rec{
			featureMapRec("o91", "o81", "o22"),
			featureMapRec("o92", "o82", "o31"),
		},
	)
	excluded := mappingRec("o88", "Mapping AggrTotalSalesPerCustomer", "does-not-exist", nil, nil, nil)

	return rec{
		"@Id":            "o1",
		"a:Name":         "Warehouse",
		"a:Code":         "WH",
		"a:Author":       "modeler",
		"a:Version":      "1.0",
		"a:CreationDate": "1690000000",
		"c:Domains":      domainsSection(),
		"c:Entities": rec{
			"o:Entity": many(customerEntity(), orderEntity(), customerOrdersEntity()),
			"o:Shortcut": shortcutEntityRec("o50", "Region",
				subShortcutRec("o51", "region_id"),
				subShortcutRec("o52", "region_name"),
			),
		},
		"c:Relationships": rec{
			"o:Relationship": relationshipRec("o40", "Customer Order", "o20", "o30", [][2]string{{"o21", "o32"}}, "o23"),
		},
		"c:TargetModels": rec{"o:TargetModel": many(
			targetModelRec("o60", "M1", "o50"),
			targetModelRec("o61", "M2", "o99"),
		)},
		"c:SourceModels": rec{"o:Shortcut": many(
			modelShortcutRec("o70", "Sales Source", "M1"),
			modelShortcutRec("o71", "Unused Source", "M2"),
		)},
		"c:Mappings": rec{"o:DefaultObjectMapping": many(customerOrders, excluded)},
	}
}
